package provider

// ModelType represents a standard data model type. Each ModelType maps
// to a specific data structure in pkg/models/.
type ModelType string

const (
	// ModelDailyHistorical is daily OHLCV price history → []models.OHLCV.
	ModelDailyHistorical ModelType = "DailyHistorical"

	// ModelInstrumentInfo is descriptive company data → *models.InstrumentInfo.
	ModelInstrumentInfo ModelType = "InstrumentInfo"

	// ModelIndexConstituents is an index weighting list → []models.IndexConstituent.
	ModelIndexConstituents ModelType = "IndexConstituents"

	// ModelCompanyNews is recent company headlines → []models.NewsArticle.
	ModelCompanyNews ModelType = "CompanyNews"
)

// AllModels lists every defined model type, in display order.
func AllModels() []ModelType {
	return []ModelType{
		ModelDailyHistorical,
		ModelInstrumentInfo,
		ModelIndexConstituents,
		ModelCompanyNews,
	}
}

// ModelCategory groups model types for status output.
func ModelCategory(m ModelType) string {
	switch m {
	case ModelDailyHistorical:
		return "Price"
	case ModelInstrumentInfo:
		return "Reference"
	case ModelIndexConstituents:
		return "Index"
	case ModelCompanyNews:
		return "News"
	default:
		return "Other"
	}
}
