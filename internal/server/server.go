// Package server exposes the patient charts and reference zones over HTTP.
package server

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/brpaz/echozap"
	lru "github.com/hashicorp/golang-lru"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/asthmatracker/asthmaviz/internal/core"
	"github.com/asthmatracker/asthmaviz/internal/norms"
	"github.com/asthmatracker/asthmaviz/internal/records"
	"github.com/asthmatracker/asthmaviz/internal/render"
	"github.com/asthmatracker/asthmaviz/internal/version"
)

const (
	DefaultCacheSize = 256
	svgContentType   = "image/svg+xml; charset=utf-8"
	maxRenderBody    = 1 << 20
	shutdownTimeout  = 5 * time.Second
)

type Params struct {
	Store     *records.Store
	Norms     *norms.Table
	Renderer  *render.Renderer
	Windows   records.Windows
	Logger    *zap.Logger
	CacheSize int
}

type Server struct {
	store    *records.Store
	norms    *norms.Table
	renderer *render.Renderer
	windows  records.Windows
	log      *zap.Logger
	cache    *lru.Cache
	now      func() time.Time

	echo *echo.Echo
}

func New(p Params) (*Server, error) {
	if p.Logger == nil {
		p.Logger = zap.NewNop()
	}
	if p.Renderer == nil {
		p.Renderer = render.New(render.DefaultOptions(), p.Logger)
	}
	if p.CacheSize <= 0 {
		p.CacheSize = DefaultCacheSize
	}
	cache, err := lru.New(p.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("server: creating cache: %w", err)
	}

	s := &Server{
		store:    p.Store,
		norms:    p.Norms,
		renderer: p.Renderer,
		windows:  p.Windows,
		log:      p.Logger,
		cache:    cache,
		now:      time.Now,
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(echozap.ZapLogger(p.Logger))
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Response().Header().Set(echo.HeaderServer, version.UserAgent())
			return next(c)
		}
	})

	e.GET("/healthz", s.health)
	e.GET("/api/zones", s.zones)
	e.POST("/api/render", s.renderDocument)
	e.GET("/api/patients/:oms", s.snapshot)
	e.GET("/api/patients/:oms/charts/:name", s.patientChart)

	s.echo = e
	return s, nil
}

func (s *Server) Handler() http.Handler { return s.echo }

// Start serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context, addr string) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("listening", zap.String("addr", addr))
		errCh <- s.echo.Start(addr)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server: listening on %s: %w", addr, err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := s.echo.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server: shutting down: %w", err)
		}
		return nil
	}
}

func (s *Server) health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok", "version": version.Version})
}

// zones answers the reference zones for sex, height and either age or
// birthday given as query parameters.
func (s *Server) zones(c echo.Context) error {
	if s.norms == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "reference table not loaded")
	}
	sex := c.QueryParam("sex")
	height, err := strconv.ParseFloat(c.QueryParam("height"), 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "height must be a number")
	}

	var (
		z  core.ZoneSet
		ok bool
	)
	if raw := c.QueryParam("age"); raw != "" {
		age, err := strconv.Atoi(raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "age must be an integer")
		}
		var row norms.Row
		if row, ok = norms.Pick(s.norms, sex, age, height); ok {
			z, ok = row.Zones()
		}
	} else {
		z, ok = norms.ZonesForPatient(s.norms, core.Patient{
			Sex:      sex,
			Birthday: c.QueryParam("birthday"),
			Height:   height,
		}, s.now())
	}
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "no reference row for these parameters")
	}
	return c.JSON(http.StatusOK, z)
}

// renderDocument renders a posted document. Bodies are pure inputs, so the
// SVG is cached by their hash.
func (s *Server) renderDocument(c echo.Context) error {
	body, err := io.ReadAll(io.LimitReader(c.Request().Body, maxRenderBody+1))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "error reading body")
	}
	if len(body) > maxRenderBody {
		return echo.NewHTTPError(http.StatusRequestEntityTooLarge, "document too large")
	}

	sum := sha256.Sum256(body)
	key := hex.EncodeToString(sum[:])
	if v, ok := s.cache.Get(key); ok {
		c.Response().Header().Set("X-Cache", "hit")
		return c.Blob(http.StatusOK, svgContentType, v.([]byte))
	}

	doc, err := render.Decode(strings.NewReader(string(body)))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	svg, err := s.svg(doc)
	if err != nil {
		return err
	}
	s.cache.Add(key, svg)
	c.Response().Header().Set("X-Cache", "miss")
	return c.Blob(http.StatusOK, svgContentType, svg)
}

func (s *Server) snapshot(c echo.Context) error {
	snap, err := s.loadSnapshot(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, snap)
}

// patientChart serves attacks.svg, pef.svg or medicine.svg for one patient.
// The optional width query parameter is the client's container width.
func (s *Server) patientChart(c echo.Context) error {
	name, ok := strings.CutSuffix(c.Param("name"), ".svg")
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "unknown chart")
	}
	kind, err := render.ParseKind(name)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "unknown chart")
	}
	var width float64
	if raw := c.QueryParam("width"); raw != "" {
		if width, err = strconv.ParseFloat(raw, 64); err != nil || width < 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "width must be a non-negative number")
		}
	}

	snap, err := s.loadSnapshot(c)
	if err != nil {
		return err
	}
	svg, err := s.svg(render.FromSnapshot(snap, kind, width))
	if err != nil {
		return err
	}
	return c.Blob(http.StatusOK, svgContentType, svg)
}

func (s *Server) loadSnapshot(c echo.Context) (records.Snapshot, error) {
	if s.store == nil {
		return records.Snapshot{}, echo.NewHTTPError(http.StatusServiceUnavailable, "record store not configured")
	}
	oms := c.Param("oms")
	snap, err := s.store.Snapshot(c.Request().Context(), oms, s.now(), s.windows, s.norms)
	if errors.Is(err, records.ErrPatientNotFound) {
		return records.Snapshot{}, echo.NewHTTPError(http.StatusNotFound, "patient not found")
	}
	if err != nil {
		s.log.Error("loading snapshot", zap.String("oms", oms), zap.Error(err))
		return records.Snapshot{}, echo.NewHTTPError(http.StatusInternalServerError, "error loading patient records")
	}
	return snap, nil
}

func (s *Server) svg(doc render.Document) ([]byte, error) {
	var b strings.Builder
	if err := s.renderer.Render(doc, &b); err != nil {
		s.log.Error("rendering", zap.String("kind", string(doc.Kind)), zap.Error(err))
		return nil, echo.NewHTTPError(http.StatusInternalServerError, "error rendering chart")
	}
	return []byte(b.String()), nil
}
