package main

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/jhoicas/ventas-api/internal/application/dto"
	"github.com/jhoicas/ventas-api/internal/application/usecase"
	"github.com/jhoicas/ventas-api/internal/domain"
	"github.com/jhoicas/ventas-api/internal/infrastructure/storage"
	"github.com/jhoicas/ventas-api/pkg/logger"
)

var columns = []string{"tipo", "nombre", "descripcion", "precio", "costo", "stock", "categoria", "codigo", "email", "telefono", "direccion"}

type importResult struct {
	Categories int
	Products   int
	Clients    int
	Skipped    int
}

type importer struct {
	products   *usecase.ProductUseCase
	categories *usecase.CategoryUseCase
	clients    *usecase.ClientUseCase
	log        *logger.Logger

	categoryIDs map[string]int64 // nombre en minúsculas -> id
}

func newImporter(b *storage.Backend, log *logger.Logger) *importer {
	return &importer{
		products:    usecase.NewProductUseCase(b.Products, b.Categories),
		categories:  usecase.NewCategoryUseCase(b.Categories),
		clients:     usecase.NewClientUseCase(b.Clients),
		log:         log.Component("seed"),
		categoryIDs: make(map[string]int64),
	}
}

// Import lee el CSV completo. Las filas duplicadas se omiten; cualquier otro error detiene la importación.
func (imp *importer) Import(ctx context.Context, r io.Reader, charset string) (importResult, error) {
	var res importResult
	switch strings.ToLower(charset) {
	case "", "utf-8", "utf8":
	case "iso-8859-1", "iso8859-1", "latin1":
		r = transform.NewReader(r, charmap.ISO8859_1.NewDecoder())
	default:
		return res, fmt.Errorf("charset no soportado: %q", charset)
	}
	if err := imp.loadCategories(ctx); err != nil {
		return res, err
	}

	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1
	header, err := cr.Read()
	if err != nil {
		return res, fmt.Errorf("leer cabecera: %w", err)
	}
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, col := range []string{"tipo", "nombre"} {
		if _, ok := idx[col]; !ok {
			return res, fmt.Errorf("falta la columna %q (esperadas: %s)", col, strings.Join(columns, ","))
		}
	}

	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return res, nil
		}
		if err != nil {
			return res, fmt.Errorf("línea %d: %w", line, err)
		}
		row := func(col string) string {
			if i, ok := idx[col]; ok && i < len(rec) {
				return strings.TrimSpace(rec[i])
			}
			return ""
		}
		err = imp.importRow(ctx, row, &res)
		if errors.Is(err, domain.ErrDuplicate) {
			imp.log.Warn().Int("linea", line).Str("nombre", row("nombre")).Msg("fila duplicada, se omite")
			res.Skipped++
			continue
		}
		if err != nil {
			return res, fmt.Errorf("línea %d: %w", line, err)
		}
	}
}

func (imp *importer) importRow(ctx context.Context, row func(string) string, res *importResult) error {
	switch strings.ToLower(row("tipo")) {
	case "categoria", "categoría":
		key := strings.ToLower(row("nombre"))
		if _, ok := imp.categoryIDs[key]; ok {
			return domain.ErrDuplicate
		}
		c, err := imp.categories.Create(ctx, dto.CategoryRequest{Name: row("nombre"), Description: row("descripcion")})
		if err != nil {
			return err
		}
		imp.categoryIDs[key] = c.ID
		res.Categories++
	case "producto":
		in, err := imp.productRequest(row)
		if err != nil {
			return err
		}
		if _, err := imp.products.Create(ctx, in); err != nil {
			return err
		}
		res.Products++
	case "cliente":
		if _, err := imp.clients.Create(ctx, dto.ClientRequest{
			Name:    row("nombre"),
			Email:   row("email"),
			Phone:   row("telefono"),
			Address: row("direccion"),
		}); err != nil {
			return err
		}
		res.Clients++
	default:
		return fmt.Errorf("%w: tipo %q", domain.ErrInvalidInput, row("tipo"))
	}
	return nil
}

func (imp *importer) productRequest(row func(string) string) (dto.CreateProductRequest, error) {
	in := dto.CreateProductRequest{
		Name:        row("nombre"),
		Description: row("descripcion"),
		Code:        row("codigo"),
	}
	var err error
	if in.Price, err = parseMoney(row("precio")); err != nil {
		return in, fmt.Errorf("%w: precio: %v", domain.ErrInvalidInput, err)
	}
	if in.Cost, err = parseMoney(row("costo")); err != nil {
		return in, fmt.Errorf("%w: costo: %v", domain.ErrInvalidInput, err)
	}
	if s := row("stock"); s != "" {
		if in.Stock, err = strconv.ParseInt(s, 10, 64); err != nil {
			return in, fmt.Errorf("%w: stock: %v", domain.ErrInvalidInput, err)
		}
	}
	if name := row("categoria"); name != "" {
		id, ok := imp.categoryIDs[strings.ToLower(name)]
		if !ok {
			return in, fmt.Errorf("%w: categoría %q inexistente", domain.ErrInvalidInput, name)
		}
		in.CategoryID = &id
	}
	return in, nil
}

// loadCategories indexa las categorías existentes para resolver productos por nombre.
func (imp *importer) loadCategories(ctx context.Context) error {
	const pageSize = 100
	for offset := 0; ; offset += pageSize {
		page, err := imp.categories.List(ctx, dto.PageRequest{Limit: pageSize, Offset: offset})
		if err != nil {
			return err
		}
		for _, c := range page.Items {
			imp.categoryIDs[strings.ToLower(c.Name)] = c.ID
		}
		if len(page.Items) < pageSize {
			return nil
		}
	}
}

// parseMoney acepta coma o punto como separador decimal, sin separador de miles.
func parseMoney(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(strings.Replace(s, ",", ".", 1))
}
