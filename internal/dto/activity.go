package dto

// ActivityRequest creates an activity under an agreement.
type ActivityRequest struct {
	Title         string  `json:"title" validate:"required,max=200"`
	Description   string  `json:"description" validate:"max=5000"`
	StartDate     string  `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate       string  `json:"end_date" validate:"required,datetime=2006-01-02"`
	ResponsibleID *string `json:"responsible_id" validate:"omitempty,uuid"`
}

// ActivityUpdateRequest patches an activity; nil fields are left unchanged.
type ActivityUpdateRequest struct {
	Title         *string `json:"title" validate:"omitempty,max=200"`
	Description   *string `json:"description" validate:"omitempty,max=5000"`
	StartDate     *string `json:"start_date" validate:"omitempty,datetime=2006-01-02"`
	EndDate       *string `json:"end_date" validate:"omitempty,datetime=2006-01-02"`
	ResponsibleID *string `json:"responsible_id" validate:"omitempty,uuid"`
	Completed     *bool   `json:"completed"`
}
