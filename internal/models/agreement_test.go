package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestAgreementExpiryDerivation(t *testing.T) {
	today := day(2025, 3, 1)
	cases := []struct {
		name          string
		expiration    time.Time
		days          int
		aboutToExpire bool
		expired       bool
	}{
		{"expires today", today, 0, true, false},
		{"window boundary", today.AddDate(0, 0, 60), 60, true, false},
		{"just outside window", today.AddDate(0, 0, 61), 61, false, false},
		{"yesterday", today.AddDate(0, 0, -1), -1, false, true},
		{"far future", day(2027, 1, 1), 671, false, false},
		{"across leap day", day(2024, 2, 28), -367, false, true},
		{"beyond duration range", day(2400, 3, 1), 136966, false, false},
		{"distant past", day(1600, 3, 1), -155228, false, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			a := Agreement{ExpirationDate: tc.expiration, Status: StatusActive}
			assert.Equal(t, tc.days, a.DaysRemaining(today))
			assert.Equal(t, tc.aboutToExpire, a.IsAboutToExpire(today))
			assert.Equal(t, tc.expired, a.IsExpired(today))
		})
	}
}

func TestDaysRemainingIgnoresTimeOfDay(t *testing.T) {
	a := Agreement{ExpirationDate: time.Date(2025, 3, 10, 0, 0, 0, 0, time.FixedZone("", 0))}
	assert.Equal(t, 9, a.DaysRemaining(time.Date(2025, 3, 1, 23, 59, 0, 0, time.UTC)))
}

func TestDerivedStatus(t *testing.T) {
	today := day(2025, 3, 1)
	a := Agreement{ExpirationDate: today.AddDate(0, 0, 10), Status: StatusActive}
	assert.Equal(t, StatusAboutToExpire, a.DerivedStatus(today))

	a.Status = StatusExpired
	a.ExpirationDate = today.AddDate(1, 0, 0)
	assert.Equal(t, StatusActive, a.DerivedStatus(today))

	a.ExpirationDate = today.AddDate(0, 0, -3)
	assert.Equal(t, StatusExpired, a.DerivedStatus(today))

	for _, workflow := range []AgreementStatus{StatusInReview, StatusLegal, StatusSigning, StatusApproved, StatusRejected} {
		a.Status = workflow
		assert.Equal(t, workflow, a.DerivedStatus(today), workflow)
	}
}

func TestCalendarDate(t *testing.T) {
	bogota, err := time.LoadLocation("America/Bogota")
	if err != nil {
		t.Skip("tzdata unavailable")
	}
	instant := time.Date(2025, 3, 2, 3, 0, 0, 0, time.UTC)
	assert.Equal(t, day(2025, 3, 1), CalendarDate(instant, bogota))
	assert.Equal(t, day(2025, 3, 2), CalendarDate(instant, nil))
}

func TestAgreementViewDecorate(t *testing.T) {
	first, last, username := "Ana", "Gomez", "agomez"
	path := "agreements/a1/contract.pdf"
	v := AgreementView{
		Agreement:           Agreement{ExpirationDate: day(2025, 3, 31), Status: StatusActive, FilePath: &path},
		SupervisorFirstName: &first,
		SupervisorLastName:  &last,
		SupervisorUsername:  &username,
	}
	v.Decorate(day(2025, 3, 1))

	assert.Equal(t, 30, v.DaysRemaining)
	assert.True(t, v.IsAboutToExpire)
	assert.False(t, v.IsExpired)
	assert.Equal(t, StatusAboutToExpire, v.ComputedStatus)
	assert.Equal(t, StatusActive, v.Status)
	assert.Equal(t, "Ana Gomez", v.SupervisorName)
	assert.True(t, v.HasFile)
}

func TestStatusAndTypeValid(t *testing.T) {
	assert.True(t, StatusSigning.Valid())
	assert.True(t, StatusAboutToExpire.Valid())
	assert.False(t, AgreementStatus("archived").Valid())
	assert.True(t, AgreementWelfare.Valid())
	assert.False(t, AgreementType("research").Valid())
}
