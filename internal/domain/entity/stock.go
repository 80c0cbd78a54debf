package entity

// StockRequest cantidad solicitada de un producto al libro de stock.
type StockRequest struct {
	ProductID int64
	Quantity  int64
}

// StockLevel existencias de un producto tras una operación del libro.
type StockLevel struct {
	ProductID int64
	Name      string
	Stock     int64
}
