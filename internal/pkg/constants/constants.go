package constants

const (
	ViperSecretKey           = "secret_key"
	ViperDatabaseDSN         = "database_dsn"
	ViperListenAddr          = "listen_addr"
	ViperRateDecimals        = "rate_round_decimals"
	ViperPopulationTolerance = "population_tolerance"
	ViperContainmentTol      = "containment_tolerance"
	ViperWikidataBaseURL     = "wikidata_base_url"

	CookieKeySecretToken = "secret_token"

	CtxKeyRequestID = "request_id"

	HeaderRequestID = "X-Request-Id"
)
