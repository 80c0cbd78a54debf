package postgres

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	pgxdecimal "github.com/jackc/pgx-shopspring-decimal"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/ventas-api/pkg/config"
)

const (
	defaultMaxConns = 25
	pingTimeout     = 5 * time.Second
)

// NewPool abre el pool de PostgreSQL y verifica la conexión con un ping.
// Cada conexión registra el codec NUMERIC <-> decimal.Decimal.
func NewPool(ctx context.Context, cfg config.DBConfig) (*pgxpool.Pool, error) {
	poolCfg, err := poolConfig(cfg)
	if err != nil {
		return nil, err
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("crear pool: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping DB: %w", err)
	}
	return pool, nil
}

// poolConfig arma la configuración del pool sin abrir conexiones.
// El host se reemplaza por su IPv4 cuando existe: los contenedores suelen no tener ruta IPv6.
// El ServerName de TLS ya quedó fijado por ParseConfig con el nombre original.
func poolConfig(cfg config.DBConfig) (*pgxpool.Config, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("parse DSN: %w", err)
	}
	if ipv4, err := resolveIPv4(poolCfg.ConnConfig.Host); err == nil {
		poolCfg.ConnConfig.Host = ipv4
	}

	poolCfg.MaxConns = defaultMaxConns
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = int32(cfg.MaxConns)
	}
	poolCfg.MinConns = min(2, poolCfg.MaxConns)
	poolCfg.MaxConnLifetime = time.Hour
	poolCfg.MaxConnIdleTime = 30 * time.Minute
	poolCfg.HealthCheckPeriod = time.Minute
	poolCfg.AfterConnect = func(_ context.Context, conn *pgx.Conn) error {
		pgxdecimal.Register(conn.TypeMap())
		return nil
	}
	return poolCfg, nil
}

// resolveIPv4 devuelve la primera IPv4 del host. Sockets unix y literales IPv6 no se tocan.
func resolveIPv4(host string) (string, error) {
	if host == "" || host[0] == '/' {
		return "", errors.New("host sin IP")
	}
	if ip := net.ParseIP(host); ip != nil {
		if ip.To4() == nil {
			return "", errors.New("literal IPv6")
		}
		return host, nil
	}
	ips, err := net.LookupIP(host)
	if err != nil {
		return "", err
	}
	for _, ip := range ips {
		if v4 := ip.To4(); v4 != nil {
			return v4.String(), nil
		}
	}
	return "", fmt.Errorf("%s no tiene IPv4", host)
}
