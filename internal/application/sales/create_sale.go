package sales

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/ventas-api/internal/application/dto"
	"github.com/jhoicas/ventas-api/internal/domain"
	"github.com/jhoicas/ventas-api/internal/domain/entity"
	"github.com/jhoicas/ventas-api/internal/domain/repository"
	salesdomain "github.com/jhoicas/ventas-api/internal/domain/sales"
	"github.com/jhoicas/ventas-api/pkg/logger"
	"github.com/jhoicas/ventas-api/pkg/metrics"
)

// Config parámetros del motor de ventas.
type Config struct {
	LowStockThreshold int64
	RetryAttempts     int
	RetryBackoff      time.Duration
	TxTimeout         time.Duration
}

// CreateSaleUseCase registra ventas: valida el carrito, descuenta stock y persiste cabecera,
// detalles y eventos en una sola transacción.
type CreateSaleUseCase struct {
	txRunner TxRunner
	cfg      Config
	log      *logger.Logger
	metrics  *metrics.Metrics
	now      func() time.Time
}

// NewCreateSaleUseCase construye el caso de uso. m puede ser nil.
func NewCreateSaleUseCase(txRunner TxRunner, cfg Config, log *logger.Logger, m *metrics.Metrics) *CreateSaleUseCase {
	if cfg.RetryAttempts < 1 {
		cfg.RetryAttempts = 1
	}
	if cfg.TxTimeout <= 0 {
		cfg.TxTimeout = 5 * time.Second
	}
	if log == nil {
		log = logger.Nop()
	}
	return &CreateSaleUseCase{
		txRunner: txRunner,
		cfg:      cfg,
		log:      log.Component("ventas"),
		metrics:  m,
		now:      time.Now,
	}
}

// CreateSale registra la venta descrita por in. reference es la clave de idempotencia (UUID);
// vacía genera una nueva. Repetir una referencia ya confirmada devuelve la venta original.
func (uc *CreateSaleUseCase) CreateSale(ctx context.Context, reference string, in dto.CreateSaleRequest) (*dto.SaleResponse, error) {
	if err := validateCart(in.Items); err != nil {
		uc.observeRejected(err)
		return nil, err
	}
	ref, err := normalizeReference(reference)
	if err != nil {
		return nil, err
	}

	var out *dto.SaleResponse
	var replayed bool
	err = uc.withRetry(ctx, ref, func(ctx context.Context) error {
		var err error
		out, replayed, err = uc.attempt(ctx, ref, in)
		if errors.Is(err, domain.ErrDuplicate) {
			// Otra petición con la misma referencia confirmó primero: el nuevo intento la encuentra.
			out, replayed, err = uc.attempt(ctx, ref, in)
		}
		return err
	})
	if err != nil {
		var saleErr *domain.SaleError
		switch {
		case errors.As(err, &saleErr):
			uc.observeRejected(err)
			uc.log.Info().Str("referencia", ref).Str("motivo", string(saleErr.Kind)).Msg("venta rechazada")
		case errors.Is(err, domain.ErrUnavailable):
			uc.count(metrics.ResultUnavailable, "")
			uc.log.Error().Err(err).Str("referencia", ref).Msg("venta no registrada: almacén no disponible")
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			uc.count(metrics.ResultError, "cancelled")
		default:
			uc.count(metrics.ResultError, "")
			uc.log.Error().Err(err).Str("referencia", ref).Msg("venta no registrada")
		}
		return nil, err
	}

	if replayed {
		uc.count(metrics.ResultReplayed, "")
		uc.log.Info().Int64("venta_id", out.ID).Str("referencia", ref).Msg("venta repetida: se devuelve la registrada")
		return out, nil
	}
	uc.count(metrics.ResultCommitted, "")
	if uc.metrics != nil {
		uc.metrics.SaleAmount.Observe(out.Total.InexactFloat64())
	}
	uc.log.Info().
		Int64("venta_id", out.ID).
		Str("referencia", ref).
		Str("total", out.Total.StringFixed(salesdomain.MoneyPlaces)).
		Int("lineas", len(out.Details)).
		Msg("venta registrada")
	return out, nil
}

// attempt es una ejecución completa de la transacción de venta.
func (uc *CreateSaleUseCase) attempt(ctx context.Context, ref string, in dto.CreateSaleRequest) (*dto.SaleResponse, bool, error) {
	var out *dto.SaleResponse
	var replayed bool
	err := uc.txRunner.RunSale(ctx, func(
		ledger repository.StockLedger,
		productRepo repository.ProductRepository,
		clientRepo repository.ClientRepository,
		saleRepo repository.SaleRepository,
		outboxRepo repository.OutboxRepository,
	) error {
		existing, err := saleRepo.GetByReference(ctx, ref)
		if err != nil {
			return err
		}
		if existing != nil {
			details, err := saleRepo.GetDetails(ctx, existing.ID)
			if err != nil {
				return err
			}
			existing.Details = details
			out, replayed = ToSaleResponse(existing), true
			return nil
		}

		if in.ClientID != nil {
			client, err := clientRepo.GetByID(ctx, *in.ClientID)
			if err != nil {
				return err
			}
			if client == nil {
				return &domain.SaleError{Kind: domain.KindUnknownClient, ClientID: *in.ClientID}
			}
		}

		products, err := productRepo.GetByIDs(ctx, productIDs(in.Items))
		if err != nil {
			return err
		}
		var missing []domain.LineProblem
		for i, item := range in.Items {
			if _, ok := products[item.ProductID]; !ok {
				missing = append(missing, domain.LineProblem{Line: i, ProductID: item.ProductID, Quantity: item.Quantity})
			}
		}
		if len(missing) > 0 {
			return &domain.SaleError{Kind: domain.KindUnknownProduct, Lines: missing}
		}

		sale, err := uc.priceCart(ref, in, products)
		if err != nil {
			return err
		}

		requests := make([]entity.StockRequest, 0, len(sale.Details))
		for _, d := range sale.Details {
			requests = append(requests, entity.StockRequest{ProductID: d.ProductID, Quantity: d.Quantity})
		}
		levels, err := ledger.ReserveAndCommit(ctx, ref, requests)
		if err != nil {
			return err
		}

		if err := saleRepo.Create(ctx, sale); err != nil {
			return err
		}
		for _, d := range sale.Details {
			d.SaleID = sale.ID
			if err := saleRepo.CreateDetail(ctx, d); err != nil {
				return err
			}
		}
		if err := uc.enqueueEvents(ctx, outboxRepo, sale, levels); err != nil {
			return err
		}
		out = ToSaleResponse(sale)
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return out, replayed, nil
}

// priceCart arma la venta con el precio vigente del catálogo. Los precios enviados por el cliente
// solo se comparan y, si difieren, se registra una advertencia.
func (uc *CreateSaleUseCase) priceCart(ref string, in dto.CreateSaleRequest, products map[int64]*entity.Product) (*entity.Sale, error) {
	sale := &entity.Sale{
		ClientID:  in.ClientID,
		Date:      uc.now().UTC(),
		Status:    entity.SaleStatusCompleted,
		Reference: ref,
		Details:   make([]*entity.SaleDetail, 0, len(in.Items)),
	}
	subtotals := make([]decimal.Decimal, 0, len(in.Items))
	for i, item := range in.Items {
		product := products[item.ProductID]
		if item.UnitPrice != nil && !item.UnitPrice.Equal(product.Price) {
			uc.log.Warn().
				Str("referencia", ref).
				Int("linea", i).
				Int64("producto_id", product.ID).
				Str("precio_cliente", item.UnitPrice.String()).
				Str("precio_catalogo", product.Price.String()).
				Msg("precio unitario del cliente difiere del catálogo; se usa el del catálogo")
		}
		subtotal := salesdomain.LineSubtotal(product.Price, item.Quantity)
		if !salesdomain.FitsMoney(subtotal) {
			return nil, fmt.Errorf("%w: el subtotal de la línea %d excede el máximo permitido", domain.ErrInvalidInput, i)
		}
		subtotals = append(subtotals, subtotal)
		sale.Details = append(sale.Details, &entity.SaleDetail{
			ProductID:   product.ID,
			ProductName: product.Name,
			Quantity:    item.Quantity,
			UnitPrice:   product.Price,
			Subtotal:    subtotal,
		})
	}
	sale.Total = salesdomain.SaleTotal(subtotals)
	if !salesdomain.FitsMoney(sale.Total) {
		return nil, fmt.Errorf("%w: el total de la venta excede el máximo permitido", domain.ErrInvalidInput)
	}
	if in.Total != nil && !in.Total.Equal(sale.Total) {
		uc.log.Warn().
			Str("referencia", ref).
			Str("total_cliente", in.Total.String()).
			Str("total_calculado", sale.Total.String()).
			Msg("total del cliente difiere del calculado")
	}
	return sale, nil
}

func (uc *CreateSaleUseCase) enqueueEvents(ctx context.Context, outboxRepo repository.OutboxRepository, sale *entity.Sale, levels []entity.StockLevel) error {
	completed := SaleCompletedEvent{
		SaleID:    sale.ID,
		Reference: sale.Reference,
		ClientID:  sale.ClientID,
		Total:     sale.Total,
		Date:      sale.Date,
		Lines:     make([]SaleCompletedLine, 0, len(sale.Details)),
	}
	for _, d := range sale.Details {
		completed.Lines = append(completed.Lines, SaleCompletedLine{
			ProductID: d.ProductID, Quantity: d.Quantity, UnitPrice: d.UnitPrice, Subtotal: d.Subtotal,
		})
	}
	if err := insertEvent(ctx, outboxRepo, entity.TopicSaleCompleted, sale.Reference, completed); err != nil {
		return err
	}
	for _, lvl := range levels {
		if lvl.Stock > uc.cfg.LowStockThreshold {
			continue
		}
		low := StockLowEvent{
			ProductID: lvl.ProductID,
			Name:      lvl.Name,
			Stock:     lvl.Stock,
			Threshold: uc.cfg.LowStockThreshold,
			Reference: sale.Reference,
		}
		if err := insertEvent(ctx, outboxRepo, entity.TopicStockLow, strconv.FormatInt(lvl.ProductID, 10), low); err != nil {
			return err
		}
	}
	return nil
}

func insertEvent(ctx context.Context, outboxRepo repository.OutboxRepository, topic, key string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", topic, err)
	}
	return outboxRepo.Insert(ctx, &entity.OutboxEvent{
		EventID: uuid.NewString(),
		Topic:   topic,
		Key:     key,
		Payload: data,
	})
}

// withRetry repite fn mientras falle con domain.ErrTransient, con espera exponencial entre intentos.
// Cada intento corre con su propio plazo (TxTimeout). Agotados los intentos devuelve domain.ErrUnavailable.
func (uc *CreateSaleUseCase) withRetry(ctx context.Context, ref string, fn func(ctx context.Context) error) error {
	backoff := uc.cfg.RetryBackoff
	var lastErr error
	for attempt := 1; attempt <= uc.cfg.RetryAttempts; attempt++ {
		attemptCtx, cancel := context.WithTimeout(ctx, uc.cfg.TxTimeout)
		err := fn(attemptCtx)
		cancel()
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		// Plazo del intento vencido con el llamador aún vivo: contención o almacén lento.
		if !errors.Is(err, domain.ErrTransient) && !errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		lastErr = err
		if attempt == uc.cfg.RetryAttempts {
			break
		}
		if uc.metrics != nil {
			uc.metrics.SaleRetries.Inc()
		}
		uc.log.Warn().Err(err).Str("referencia", ref).Int("intento", attempt).Dur("espera", backoff).Msg("falla transitoria, reintentando venta")
		timer := time.NewTimer(backoff)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		}
		backoff *= 2
	}
	return fmt.Errorf("%w: %w", domain.ErrUnavailable, lastErr)
}

func (uc *CreateSaleUseCase) observeRejected(err error) {
	var saleErr *domain.SaleError
	if !errors.As(err, &saleErr) {
		return
	}
	uc.count(metrics.ResultRejected, string(saleErr.Kind))
	if saleErr.Kind == domain.KindInsufficientStock && uc.metrics != nil {
		uc.metrics.Shortages.Inc()
	}
}

func (uc *CreateSaleUseCase) count(result, kind string) {
	if uc.metrics != nil {
		uc.metrics.Sales.WithLabelValues(result, kind).Inc()
	}
}

// validateCart verifica el carrito antes de tocar el almacén.
func validateCart(items []dto.SaleItemRequest) error {
	if len(items) == 0 {
		return &domain.SaleError{Kind: domain.KindEmptyCart}
	}
	var bad []domain.LineProblem
	perProduct := make(map[int64]int64, len(items))
	for i, item := range items {
		switch {
		case item.Quantity <= 0:
			bad = append(bad, domain.LineProblem{Line: i, ProductID: item.ProductID, Quantity: item.Quantity})
		case item.Quantity > math.MaxInt64-perProduct[item.ProductID]:
			// La cantidad acumulada del producto desbordaría int64.
			bad = append(bad, domain.LineProblem{Line: i, ProductID: item.ProductID, Quantity: item.Quantity})
		default:
			perProduct[item.ProductID] += item.Quantity
		}
	}
	if len(bad) > 0 {
		return &domain.SaleError{Kind: domain.KindInvalidQuantity, Lines: bad}
	}
	return nil
}

func normalizeReference(reference string) (string, error) {
	if reference == "" {
		return uuid.NewString(), nil
	}
	id, err := uuid.Parse(reference)
	if err != nil {
		return "", fmt.Errorf("%w: la referencia debe ser un UUID", domain.ErrInvalidInput)
	}
	return id.String(), nil
}

func productIDs(items []dto.SaleItemRequest) []int64 {
	seen := make(map[int64]struct{}, len(items))
	ids := make([]int64, 0, len(items))
	for _, item := range items {
		if _, ok := seen[item.ProductID]; ok {
			continue
		}
		seen[item.ProductID] = struct{}{}
		ids = append(ids, item.ProductID)
	}
	return ids
}
