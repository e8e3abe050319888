// Package catalogapi fetches the perfume catalog from the remote catalog API.
package catalogapi

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/xenking/smellandco-storefront/internal/domain/catalog"
)

// DefaultURL is the public catalog endpoint.
const DefaultURL = "https://api-perfumes-xukq.onrender.com/perfumes"

// maxBody caps the catalog payload read from the remote API.
const maxBody = 4 << 20

var (
	defaultNotes = []string{"Nota cítrica", "Nota floral", "Nota amaderada"}

	basePrice = decimal.NewFromInt(120)
	priceStep = decimal.NewFromInt(5)
)

// StatusError is returned when the catalog API answers with a non-2xx status.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("catalog api: unexpected status %d", e.Code)
}

// Client reads perfumes from the remote catalog API.
type Client struct {
	url  string
	http *http.Client
}

var _ catalog.Source = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the instrumented default HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		cl.http = c
	}
}

// New creates a Client for the given endpoint. An empty url selects DefaultURL.
func New(url string, opts ...Option) *Client {
	if url == "" {
		url = DefaultURL
	}
	c := &Client{
		url:  url,
		http: &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// FetchPerfumes downloads and maps the remote catalog. Deadlines are taken
// from ctx.
func (c *Client) FetchPerfumes(ctx context.Context) ([]catalog.Perfume, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, http.NoBody)
	if err != nil {
		return nil, errors.Wrap(err, "create request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "do request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Code: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, errors.Wrap(err, "read body")
	}
	records, err := decodeRecords(body)
	if err != nil {
		return nil, errors.Wrap(err, "decode catalog")
	}
	if len(records) == 0 {
		return nil, catalog.ErrEmptyCatalog
	}

	perfumes := make([]catalog.Perfume, len(records))
	for i, r := range records {
		perfumes[i] = r.perfume(i)
	}
	return perfumes, nil
}

// record is one entry of the remote payload. Fields of the wrong type are
// treated as missing.
type record struct {
	Name  string
	Notes []string
	Image string
}

func decodeRecords(data []byte) ([]record, error) {
	d := jx.DecodeBytes(data)
	if d.Next() != jx.Array {
		return nil, errors.New("payload is not an array")
	}
	var out []record
	if err := d.Arr(func(d *jx.Decoder) error {
		r, err := decodeRecord(d)
		if err != nil {
			return err
		}
		out = append(out, r)
		return nil
	}); err != nil {
		return nil, err
	}
	return out, nil
}

func decodeRecord(d *jx.Decoder) (record, error) {
	var r record
	if d.Next() != jx.Object {
		return r, d.Skip()
	}
	err := d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "nombre":
			return optString(d, &r.Name)
		case "imagen":
			return optString(d, &r.Image)
		case "notas":
			if d.Next() != jx.Array {
				return d.Skip()
			}
			return d.Arr(func(d *jx.Decoder) error {
				// Slots are positional: top, middle, base.
				var note string
				if err := optString(d, &note); err != nil {
					return err
				}
				r.Notes = append(r.Notes, note)
				return nil
			})
		default:
			return d.Skip()
		}
	})
	return r, err
}

func optString(d *jx.Decoder, dst *string) error {
	if d.Next() != jx.String {
		return d.Skip()
	}
	s, err := d.Str()
	if err != nil {
		return err
	}
	*dst = s
	return nil
}

func (r record) perfume(i int) catalog.Perfume {
	name := r.Name
	if name == "" {
		name = fmt.Sprintf("Perfume %d", i+1)
	}
	notes := r.Notes
	if len(notes) == 0 {
		notes = defaultNotes
	}
	joined := strings.Join(notes, ", ")

	return catalog.Perfume{
		ID:               fmt.Sprintf("perfume-%d", i+1),
		Name:             name,
		ShortDescription: "Fragancia con notas de " + joined,
		Description:      "Una exquisita combinación de " + joined + ", creando una experiencia olfativa única y sofisticada.",
		Price:            basePrice.Add(priceStep.Mul(decimal.NewFromInt(int64(i)))),
		Image:            r.Image,
		Notes: catalog.Notes{
			Top:    []string{noteAt(notes, 0, "Notas cítricas")},
			Middle: []string{noteAt(notes, 1, "Notas florales")},
			Base:   []string{noteAt(notes, 2, "Notas amaderadas")},
		},
		Volume:       "100ml",
		IsNew:        i < 3,
		IsBestseller: i >= 3 && i < 6,
	}
}

func noteAt(notes []string, i int, def string) string {
	if i < len(notes) && notes[i] != "" {
		return notes[i]
	}
	return def
}
