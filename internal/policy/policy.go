// Package policy holds the role/action access matrix evaluated at every protected route.
package policy

import (
	"sort"

	"github.com/noah-isme/agreements-api/internal/models"
)

// Action names a guarded operation as "resource:verb".
type Action string

const (
	DashboardView Action = "dashboard:view"

	AgreementList   Action = "agreement:list"
	AgreementView   Action = "agreement:view"
	AgreementCreate Action = "agreement:create"
	AgreementUpdate Action = "agreement:update"
	AgreementDelete Action = "agreement:delete"

	ReportList   Action = "report:list"
	ReportCreate Action = "report:create"
	ReportReview Action = "report:review"
	ReportDelete Action = "report:delete"

	ActivityList   Action = "activity:list"
	ActivityCreate Action = "activity:create"
	ActivityUpdate Action = "activity:update"
	ActivityDelete Action = "activity:delete"

	SupervisorList   Action = "supervisor:list"
	SupervisorView   Action = "supervisor:view"
	SupervisorCreate Action = "supervisor:create"
	SupervisorUpdate Action = "supervisor:update"
	SupervisorAssign Action = "supervisor:assign"
	SupervisorAlert  Action = "supervisor:alert"

	EvaluationList   Action = "evaluation:list"
	EvaluationCreate Action = "evaluation:create"

	UserList   Action = "user:list"
	UserView   Action = "user:view"
	UserCreate Action = "user:create"
	UserUpdate Action = "user:update"
	UserDelete Action = "user:delete"

	NotificationView   Action = "notification:view"
	NotificationUpdate Action = "notification:update"

	SystemMetrics Action = "system:metrics"
)

var allActions = []Action{
	DashboardView,
	AgreementList, AgreementView, AgreementCreate, AgreementUpdate, AgreementDelete,
	ReportList, ReportCreate, ReportReview, ReportDelete,
	ActivityList, ActivityCreate, ActivityUpdate, ActivityDelete,
	SupervisorList, SupervisorView, SupervisorCreate, SupervisorUpdate, SupervisorAssign, SupervisorAlert,
	EvaluationList, EvaluationCreate,
	UserList, UserView, UserCreate, UserUpdate, UserDelete,
	NotificationView, NotificationUpdate,
	SystemMetrics,
}

var grants = map[models.UserRole]map[Action]struct{}{
	models.RoleAdmin: set(allActions...),
	models.RoleSupervisor: set(
		DashboardView,
		AgreementList, AgreementView,
		ReportList, ReportCreate,
		ActivityList,
		SupervisorList, SupervisorView,
		EvaluationList,
		NotificationView, NotificationUpdate,
	),
	models.RoleStudent: set(
		DashboardView,
		AgreementList, AgreementView,
		ActivityList,
		NotificationView, NotificationUpdate,
	),
}

// CanAccess reports whether role may perform action. Unknown roles and actions are denied.
func CanAccess(role models.UserRole, action Action) bool {
	allowed, ok := grants[role]
	if !ok {
		return false
	}
	_, ok = allowed[action]
	return ok
}

// Actions returns the actions granted to role, sorted.
func Actions(role models.UserRole) []Action {
	out := make([]Action, 0, len(grants[role]))
	for a := range grants[role] {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func set(actions ...Action) map[Action]struct{} {
	m := make(map[Action]struct{}, len(actions))
	for _, a := range actions {
		m[a] = struct{}{}
	}
	return m
}
