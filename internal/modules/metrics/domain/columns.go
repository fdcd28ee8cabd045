package domain

const (
	ColumnAccountID   = "account_id"
	ColumnDate        = "date"
	ColumnImpressions = "impressions"
	ColumnClicks      = "clicks"
	ColumnConversions = "conversions"
	ColumnCostMicros  = "cost_micros"
)

type Column struct {
	Key   string
	Label string
}

var baseColumns = []Column{
	{Key: ColumnAccountID, Label: "Account"},
	{Key: ColumnDate, Label: "Date"},
	{Key: ColumnImpressions, Label: "Impressions"},
	{Key: ColumnClicks, Label: "Clicks"},
	{Key: ColumnConversions, Label: "Conversions"},
}

var costColumn = Column{Key: ColumnCostMicros, Label: "Cost (micros)"}

// Columns returns the ordered column set for a viewer. The cost column is appended for admins
// only; the base columns and their order never change.
func Columns(admin bool) []Column {
	out := make([]Column, 0, len(baseColumns)+1)
	out = append(out, baseColumns...)
	if admin {
		out = append(out, costColumn)
	}
	return out
}

// Viewer is the part of the signed-in user the dashboard depends on.
type Viewer struct {
	Email    string
	FullName string
	Role     string
}

func (v Viewer) IsAdmin() bool {
	return v.Role == "admin"
}

func (v Viewer) DisplayName() string {
	if v.FullName != "" {
		return v.FullName
	}
	return v.Email
}
