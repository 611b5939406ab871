package fmp

// Wire formats for the FMP endpoints this provider consumes. Only the
// fields the fetchers read are declared; the API returns many more.

// historicalResponse wraps /historical-price-full.
type historicalResponse struct {
	Symbol     string     `json:"symbol"`
	Historical []priceBar `json:"historical"`
}

// priceBar is one trading day, newest first in the API response.
type priceBar struct {
	Date     string  `json:"date"`
	Open     float64 `json:"open"`
	High     float64 `json:"high"`
	Low      float64 `json:"low"`
	Close    float64 `json:"close"`
	AdjClose float64 `json:"adjClose"`
	Volume   int64   `json:"volume"`
}

// companyProfile is one element of the /profile array.
type companyProfile struct {
	Symbol            string  `json:"symbol"`
	CompanyName       string  `json:"companyName"`
	Currency          string  `json:"currency"`
	Exchange          string  `json:"exchange"`
	ExchangeShortName string  `json:"exchangeShortName"`
	Industry          string  `json:"industry"`
	Sector            string  `json:"sector"`
	Country           string  `json:"country"`
	Website           string  `json:"website"`
	Description       string  `json:"description"`
	MarketCap         float64 `json:"mktCap"`
}

// newsItem is one element of the /stock_news array.
type newsItem struct {
	Symbol        string `json:"symbol"`
	PublishedDate string `json:"publishedDate"`
	Title         string `json:"title"`
	Site          string `json:"site"`
	Body          string `json:"text"`
	URL           string `json:"url"`
}
