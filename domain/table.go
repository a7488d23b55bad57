package domain

// Table is a mongo collection name
type Table string

const (
	TableOrders         Table = "orders"
	TableOrderEvents    Table = "order_events"
	TableCounters       Table = "counters"
	TableMarketSettings Table = "market_settings"
)
