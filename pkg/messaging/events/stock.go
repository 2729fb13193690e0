package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/abgdnv/inventory/pkg/messaging"
)

// StockChangedEvent is published after the stock of a product was adjusted.
type StockChangedEvent struct {
	ProductID int32     `json:"product_id"`
	Delta     int32     `json:"delta"`
	Stock     int32     `json:"stock"`
	ChangedAt time.Time `json:"changed_at"`
}

func (e StockChangedEvent) Subject() string {
	return messaging.StockChangedSubject
}

func (e StockChangedEvent) Payload() ([]byte, error) {
	return json.Marshal(e)
}

// MessageID identifies one adjustment by product, resulting stock and time.
func (e StockChangedEvent) MessageID() string {
	return fmt.Sprintf("stock-%d-%d-%d", e.ProductID, e.Stock, e.ChangedAt.UnixNano())
}
