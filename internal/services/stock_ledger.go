package services

import (
	"context"

	"storefront/internal/metrics"
	"storefront/internal/models"
	"storefront/internal/repositories"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("storefront/services")

// StockLedger answers availability questions and applies guarded stock
// decrements. The check is advisory; only ConditionalDecrement is
// authoritative under concurrency.
type StockLedger struct {
	products repositories.ProductRepository
	metrics  *metrics.Metrics
}

// NewStockLedger creates a ledger over the given product store.
func NewStockLedger(products repositories.ProductRepository, m *metrics.Metrics) *StockLedger {
	return &StockLedger{products: products, metrics: m}
}

// Within returns a ledger bound to the product store of a unit of work.
func (l *StockLedger) Within(products repositories.ProductRepository) *StockLedger {
	return &StockLedger{products: products, metrics: l.metrics}
}

// CheckAvailable loads the product and fails with *InsufficientStockError
// when it holds fewer than quantity units.
func (l *StockLedger) CheckAvailable(ctx context.Context, productID string, quantity int) (*models.Product, error) {
	product, err := l.products.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if product.Stock < quantity {
		return nil, &models.InsufficientStockError{
			ProductID: productID,
			Available: product.Stock,
			Requested: quantity,
		}
	}
	return product, nil
}

// ConditionalDecrement subtracts quantity only if the stock still covers it
// and returns the number of rows changed. Zero means the guard rejected it.
func (l *StockLedger) ConditionalDecrement(ctx context.Context, productID string, quantity int) (int64, error) {
	ctx, span := tracer.Start(ctx, "StockLedger.ConditionalDecrement", trace.WithAttributes(
		attribute.String("product.id", productID),
		attribute.Int("quantity", quantity),
	))
	defer span.End()

	affected, err := l.products.DecrementStock(ctx, productID, quantity)
	if err != nil {
		span.RecordError(err)
		return 0, err
	}
	span.SetAttributes(attribute.Int64("rows_affected", affected))
	l.metrics.StockDecrement(affected > 0)
	return affected, nil
}
