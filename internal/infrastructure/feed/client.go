// Package feed obtiene el maestro de ítems y los movimientos del origen externo (rowset XML sobre HTTP).
package feed

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/pkg/logger"
)

// Consultas que entiende el origen externo (van en el header Qry).
const (
	ItemsQuery   = "SELECT Code, MasterType, Name FROM Master1 WHERE MasterType = " + DefaultItemKind
	EntriesQuery = "SELECT Date, VchType, VchNo, ItemCode, C1, C2, C3, C4, C5, BCN, Value1 FROM itemParamDet"
)

// DefaultItemKind MasterType de los ítems de inventario en el origen.
const DefaultItemKind = "6"

// maxBody tope de lectura de una respuesta (los rowsets completos del ledger pueden ser grandes).
const maxBody = 512 << 20

// Client cliente HTTP del origen externo: intenta GET y luego POST con las credenciales en headers.
type Client struct {
	httpClient *http.Client
	itemsQuery string
	log        *logger.Logger
}

// NewClient construye el cliente con el timeout dado (0 = 60 s).
func NewClient(timeout time.Duration, log *logger.Logger) *Client {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		itemsQuery: ItemsQuery,
		log:        log.Component("feed"),
	}
}

// WithItemKind cambia el MasterType pedido al origen en FetchItems. Vacío deja el de por defecto.
func (c *Client) WithItemKind(kind string) *Client {
	kind = strings.TrimSpace(kind)
	if kind == "" || kind == DefaultItemKind {
		c.itemsQuery = ItemsQuery
		return c
	}
	lit := kind
	if _, err := strconv.Atoi(kind); err != nil {
		lit = "'" + strings.ReplaceAll(kind, "'", "''") + "'"
	}
	c.itemsQuery = "SELECT Code, MasterType, Name FROM Master1 WHERE MasterType = " + lit
	return c
}

// FetchItems descarga y parsea el maestro de ítems.
func (c *Client) FetchItems(ctx context.Context, cfg entity.FeedConfig) ([]entity.Item, error) {
	body, err := c.execute(ctx, cfg, c.itemsQuery)
	if err != nil {
		return nil, err
	}
	return ParseItems(body)
}

// FetchEntries descarga y parsea los movimientos del ledger en el orden del origen.
func (c *Client) FetchEntries(ctx context.Context, cfg entity.FeedConfig) ([]entity.LedgerEntry, error) {
	body, err := c.execute(ctx, cfg, EntriesQuery)
	if err != nil {
		return nil, err
	}
	return ParseEntries(body)
}

// execute prueba GET y luego POST; devuelve el cuerpo de la primera respuesta 200.
// Sin ninguna respuesta 200 devuelve domain.ErrNoFeedData.
func (c *Client) execute(ctx context.Context, cfg entity.FeedConfig, query string) ([]byte, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("feed: url vacía: %w", domain.ErrNoActiveFeedConfig)
	}
	var lastErr error
	for _, method := range []string{http.MethodGet, http.MethodPost} {
		body, err := c.do(ctx, method, cfg, query)
		if err == nil {
			return body, nil
		}
		if ctx.Err() != nil {
			return nil, fmt.Errorf("feed: timeout o cancelación: %w", ctx.Err())
		}
		c.log.Warn().Str("method", method).Err(err).Msg("feed: intento fallido")
		lastErr = err
	}
	return nil, fmt.Errorf("%w: %v", domain.ErrNoFeedData, lastErr)
}

func (c *Client) do(ctx context.Context, method string, cfg entity.FeedConfig, query string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, cfg.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("crear request: %w", err)
	}
	req.Header.Set("SC", "1")
	req.Header.Set("Qry", query)
	req.Header.Set("UserName", cfg.Username)
	req.Header.Set("Pwd", cfg.Password)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("llamada HTTP fallida: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, fmt.Errorf("leer respuesta: %w", err)
	}
	return body, nil
}
