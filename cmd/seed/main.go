// seed importa categorías, productos y clientes desde un CSV usando los mismos casos de uso que la API.
//
// Uso: go run ./cmd/seed [-charset iso-8859-1] datos.csv
//
// Columnas (con cabecera): tipo,nombre,descripcion,precio,costo,stock,categoria,codigo,email,telefono,direccion
// tipo es categoria, producto o cliente. La categoría de un producto se busca por nombre.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/jhoicas/ventas-api/internal/infrastructure/storage"
	"github.com/jhoicas/ventas-api/pkg/config"
	"github.com/jhoicas/ventas-api/pkg/logger"
)

func main() {
	charset := flag.String("charset", "utf-8", "codificación del archivo: utf-8 o iso-8859-1")
	flag.Parse()
	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "uso: seed [-charset iso-8859-1] datos.csv")
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "cargar configuración: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel})

	f, err := os.Open(flag.Arg(0))
	if err != nil {
		log.Fatal().Err(err).Msg("abrir CSV")
	}
	defer f.Close()

	ctx := context.Background()
	backend, err := storage.Open(ctx, cfg.DB, log)
	if err != nil {
		log.Fatal().Err(err).Msg("abrir almacén")
	}
	defer backend.Close()

	imp := newImporter(backend, log)
	res, err := imp.Import(ctx, f, *charset)
	if err != nil {
		log.Error().Err(err).Msg("importación interrumpida")
		backend.Close()
		os.Exit(1)
	}
	log.Info().
		Int("categorias", res.Categories).
		Int("productos", res.Products).
		Int("clientes", res.Clients).
		Int("omitidas", res.Skipped).
		Msg("importación terminada")
}
