package provider

// ModelType names a standard data model a fetcher produces.
// Each ModelType maps to a specific data structure in pkg/models/.
type ModelType string

const (
	// ModelCompanyFacts → *models.FactCollection
	ModelCompanyFacts ModelType = "CompanyFacts"
	// ModelCompanyProfile → *models.CompanyProfile
	ModelCompanyProfile ModelType = "CompanyProfile"
	// ModelFilingFeed → []models.Filing
	ModelFilingFeed ModelType = "FilingFeed"
)
