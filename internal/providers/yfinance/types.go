package yfinance

// Yahoo's chart (v8) and quoteSummary (v10) endpoints both wrap their
// payload in an envelope carrying a result array and an error object.
// Price arrays use pointer elements because Yahoo emits JSON null for
// days with no trade.

// chartEnvelope is the v8 chart response.
type chartEnvelope struct {
	Chart struct {
		Result []chartResult `json:"result"`
		Error  *apiError     `json:"error"`
	} `json:"chart"`
}

type chartResult struct {
	Meta       chartMeta       `json:"meta"`
	Timestamp  []int64         `json:"timestamp"`
	Indicators chartIndicators `json:"indicators"`
}

type chartMeta struct {
	Symbol             string  `json:"symbol"`
	Currency           string  `json:"currency"`
	RegularMarketPrice float64 `json:"regularMarketPrice"`
	InstrumentType     string  `json:"instrumentType"`
	ExchangeName       string  `json:"exchangeName"`
}

type chartIndicators struct {
	Quote    []quoteBlock    `json:"quote"`
	AdjClose []adjCloseBlock `json:"adjclose"`
}

type quoteBlock struct {
	Open   []*float64 `json:"open"`
	High   []*float64 `json:"high"`
	Low    []*float64 `json:"low"`
	Close  []*float64 `json:"close"`
	Volume []*int64   `json:"volume"`
}

type adjCloseBlock struct {
	AdjClose []*float64 `json:"adjclose"`
}

// summaryEnvelope is the v10 quoteSummary response.
type summaryEnvelope struct {
	QuoteSummary struct {
		Result []summaryResult `json:"result"`
		Error  *apiError       `json:"error"`
	} `json:"quoteSummary"`
}

type summaryResult struct {
	AssetProfile  *assetProfile  `json:"assetProfile"`
	SummaryDetail *summaryDetail `json:"summaryDetail"`
	Price         *priceBlock    `json:"price"`
}

// rawFmt is Yahoo's number wrapper: a raw value plus a display string.
type rawFmt struct {
	Raw float64 `json:"raw"`
	Fmt string  `json:"fmt"`
}

type assetProfile struct {
	Industry            string `json:"industry"`
	Sector              string `json:"sector"`
	Country             string `json:"country"`
	Website             string `json:"website"`
	LongBusinessSummary string `json:"longBusinessSummary"`
	FullTimeEmployees   int64  `json:"fullTimeEmployees"`
}

type summaryDetail struct {
	MarketCap     rawFmt `json:"marketCap"`
	Volume        rawFmt `json:"volume"`
	AverageVolume rawFmt `json:"averageVolume"`
	PreviousClose rawFmt `json:"previousClose"`
}

type priceBlock struct {
	ShortName    string `json:"shortName"`
	LongName     string `json:"longName"`
	ExchangeName string `json:"exchangeName"`
	Currency     string `json:"currency"`
	MarketCap    rawFmt `json:"marketCap"`
}

type apiError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}
