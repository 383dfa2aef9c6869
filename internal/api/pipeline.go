package api

import (
	"mime"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/reniita09/Humaein/internal/logger"
	"github.com/reniita09/Humaein/internal/session"
)

// Pipeline decorates every outbound request with the tenant header and, when
// a credential is present, the bearer authorization header. It is installed
// as the transport of the one shared http.Client so no call site can bypass
// it.
type Pipeline struct {
	base     http.RoundTripper
	tenantID string
	store    session.Store
	log      zerolog.Logger
}

func NewPipeline(base http.RoundTripper, tenantID string, store session.Store) *Pipeline {
	if base == nil {
		base = http.DefaultTransport
	}
	return &Pipeline{
		base:     base,
		tenantID: tenantID,
		store:    store,
		log:      logger.Get(),
	}
}

func (p *Pipeline) RoundTrip(req *http.Request) (*http.Response, error) {
	out := req.Clone(req.Context())

	out.Header.Set("X-Tenant-ID", p.tenantID)

	token, err := p.store.Get()
	if err != nil {
		p.log.Warn().Err(err).Msg("Token read failed, sending request unauthenticated")
	} else if token != "" {
		out.Header.Set("Authorization", "Bearer "+token)
	}

	if out.Header.Get("X-Request-ID") == "" {
		out.Header.Set("X-Request-ID", uuid.NewString())
	}

	stripBareMultipartType(out.Header)

	return p.base.RoundTrip(out)
}

// stripBareMultipartType removes a multipart Content-Type that carries no
// boundary parameter. Such a header breaks multipart parsing server-side;
// the one written by mime/multipart always has a boundary and passes through.
func stripBareMultipartType(h http.Header) {
	ct := h.Get("Content-Type")
	if ct == "" {
		return
	}
	mediaType, params, err := mime.ParseMediaType(ct)
	if err != nil {
		return
	}
	if strings.HasPrefix(mediaType, "multipart/") && params["boundary"] == "" {
		h.Del("Content-Type")
	}
}
