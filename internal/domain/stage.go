package domain

// ReportStage is one organization-scoped entry in the driver report
// pipeline. DisplayOrder defines the stage sequence for that organization
// and is strictly increasing across the pipeline; lookups must always use
// the configured order, never a hardcoded sequence.
type ReportStage struct {
	ID           string
	OrgID        string
	Type         TripStatusType
	Name         string
	DisplayOrder int

	// PhotoRequired and BillOfLadingRequired mark what a driver must
	// attach before reporting this stage.
	PhotoRequired        bool
	BillOfLadingRequired bool
}
