// Package imagescan flags risky image references without any pixel-level
// analysis: URL token heuristics first, then optional byte-level checks
// (MIME sniffing, dimensions, aspect ratio, payload size) on fetched bytes.
package imagescan

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/postcheck/internal/engine"
	"github.com/hyperifyio/postcheck/internal/fetch"
	"github.com/hyperifyio/postcheck/internal/fields"
)

// Config tunes the byte-level checks and the counterfeit policy.
type Config struct {
	MinWidth  int
	MinHeight int
	MinAspect float64
	MaxAspect float64
	MinBytes  int
	// CounterfeitSeverity decides how counterfeit URL tokens rank. Scanner
	// variants disagree here; this deployment defaults to high.
	CounterfeitSeverity engine.Severity
	// TempDir overrides where fetched bytes are staged. Empty means the
	// system temp directory.
	TempDir string
}

// DefaultConfig returns the shipped thresholds.
func DefaultConfig() Config {
	return Config{
		MinWidth:            200,
		MinHeight:           200,
		MinAspect:           0.25,
		MaxAspect:           4.0,
		MinBytes:            1024,
		CounterfeitSeverity: engine.SeverityHigh,
	}
}

// tokenGroup is one class of risky URL tokens; each group emits at most one
// finding per URL.
type tokenGroup struct {
	label    string
	severity engine.Severity
	terms    []string
}

func tokenGroups(cfg Config) []tokenGroup {
	return []tokenGroup{
		{
			label:    "NSFW/Adult content signal in image URL",
			severity: engine.SeverityHigh,
			terms:    []string{"nsfw", "onlyfans", "porn", "xxx", "explicit", "adult"},
		},
		{
			label:    "Graphic violence signal in image URL",
			severity: engine.SeverityHigh,
			terms:    []string{"gore", "blood", "beheading", "decap", "dismember"},
		},
		{
			label:    "Counterfeit signal in image URL",
			severity: cfg.CounterfeitSeverity,
			terms:    []string{"replica", "counterfeit", "knockoff", "super-copy", "super_copy", "1:1", "1-1"},
		},
		{
			label:    "QR/scan-bait signal in image URL",
			severity: engine.SeverityMedium,
			terms:    []string{"qr", "qrcode", "scan me", "scan_me", "scan-me"},
		},
	}
}

// Scanner runs the image heuristics over a field payload.
type Scanner struct {
	Fetcher *fetch.Client
	Config  Config
}

// New returns a Scanner with default thresholds and a default fetcher.
func New() *Scanner {
	return &Scanner{
		Fetcher: &fetch.Client{MaxAttempts: 1, PerRequestTimeout: fetch.DefaultTimeout},
		Config:  DefaultConfig(),
	}
}

// Scan extracts image references from f and returns heuristic findings.
// Fetch failures never fail the scan; they downgrade to a medium finding
// when the URL looked like an image.
func (s *Scanner) Scan(ctx context.Context, f fields.Fields) []engine.Finding {
	var findings []engine.Finding
	for _, ref := range ExtractImageURLs(f) {
		findings = append(findings, s.scanOne(ctx, ref)...)
	}
	return findings
}

func (s *Scanner) scanOne(ctx context.Context, ref string) []engine.Finding {
	findings := s.tokenFindings(ref)

	var body []byte
	var declared string
	var err error
	if isDataImageURL(ref) {
		body, declared, err = decodeDataURL(ref)
	} else {
		body, declared, err = s.Fetcher.Get(ctx, ref)
	}
	if err != nil {
		log.Debug().Str("url", truncateRef(ref)).Err(err).Msg("image bytes unavailable")
		if HasImageExt(ref) {
			findings = append(findings, engine.Finding{
				Severity: engine.SeverityMedium,
				Label:    "Image fetch failed (non-blocking), manual review suggested",
				URL:      ref,
			})
		}
		return findings
	}

	// Stage bytes under a unique temp name so concurrent requests never
	// collide, and always clean up.
	dir := s.Config.TempDir
	if dir == "" {
		dir = os.TempDir()
	}
	tmp := filepath.Join(dir, "postcheck-img-"+uuid.NewString())
	if werr := os.WriteFile(tmp, body, 0o600); werr == nil {
		defer func() {
			if rerr := os.Remove(tmp); rerr != nil {
				log.Warn().Str("path", tmp).Err(rerr).Msg("temp image not removed")
			}
		}()
	}

	findings = append(findings, s.byteFindings(ref, body, declared)...)
	return findings
}

// tokenFindings runs the boundary-aware token search; each group fires at
// most once per URL.
func (s *Scanner) tokenFindings(ref string) []engine.Finding {
	// Only the URL itself is searched; data URLs carry no path tokens.
	if isDataImageURL(ref) {
		return nil
	}
	lower := strings.ToLower(ref)
	var findings []engine.Finding
	for _, group := range tokenGroups(s.Config) {
		for _, term := range group.terms {
			if containsToken(lower, term) {
				findings = append(findings, engine.Finding{
					Severity: group.severity,
					Label:    group.label,
					URL:      ref,
				})
				break
			}
		}
	}
	return findings
}

// containsToken is a substring search requiring non-alphanumeric flanks.
func containsToken(s, term string) bool {
	for start := 0; ; {
		i := strings.Index(s[start:], term)
		if i < 0 {
			return false
		}
		i += start
		before := i == 0 || !isAlnum(s[i-1])
		afterIdx := i + len(term)
		after := afterIdx >= len(s) || !isAlnum(s[afterIdx])
		if before && after {
			return true
		}
		start = i + 1
	}
}

func isAlnum(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z' || b >= '0' && b <= '9'
}

// byteFindings runs the sniff/dimension/size checks on fetched bytes.
func (s *Scanner) byteFindings(ref string, body []byte, declared string) []engine.Finding {
	var findings []engine.Finding
	add := func(label string) {
		findings = append(findings, engine.Finding{
			Severity: engine.SeverityMedium,
			Label:    label,
			URL:      ref,
		})
	}

	sniffed := mediaType(http.DetectContentType(body))
	if d := mediaType(declared); d != "" && d != sniffed {
		add("Declared content type does not match sniffed bytes")
	}
	if expected := extMediaType(ref); expected != "" && expected != sniffed {
		add("URL extension does not match sniffed image type")
	}

	if cfg, _, err := image.DecodeConfig(bytes.NewReader(body)); err == nil {
		if cfg.Width < s.Config.MinWidth || cfg.Height < s.Config.MinHeight {
			add("Image below minimum dimensions")
		}
		if cfg.Height > 0 {
			ratio := float64(cfg.Width) / float64(cfg.Height)
			if ratio < s.Config.MinAspect || ratio > s.Config.MaxAspect {
				add("Image aspect ratio outside accepted range")
			}
		}
	}

	if len(body) < s.Config.MinBytes {
		add("Image payload suspiciously small")
	}
	return findings
}

func mediaType(ct string) string {
	ct = strings.TrimSpace(strings.ToLower(ct))
	if ct == "" {
		return ""
	}
	if mt, _, err := mime.ParseMediaType(ct); err == nil {
		return mt
	}
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		return strings.TrimSpace(ct[:i])
	}
	return ct
}

// extMediaType maps a URL's image extension to the MIME type sniffing would
// report for genuine bytes of that format. Extensions the sniffer cannot
// produce (svg, avif, heic) are left unchecked.
func extMediaType(rawURL string) string {
	u := strings.ToLower(rawURL)
	if i := strings.IndexAny(u, "?#"); i >= 0 {
		u = u[:i]
	}
	switch {
	case strings.HasSuffix(u, ".png"):
		return "image/png"
	case strings.HasSuffix(u, ".jpg"), strings.HasSuffix(u, ".jpeg"):
		return "image/jpeg"
	case strings.HasSuffix(u, ".gif"):
		return "image/gif"
	case strings.HasSuffix(u, ".webp"):
		return "image/webp"
	case strings.HasSuffix(u, ".bmp"):
		return "image/bmp"
	}
	return ""
}

// decodeDataURL splits data:image/<fmt>;base64,<payload> into bytes and the
// declared media type.
func decodeDataURL(ref string) ([]byte, string, error) {
	rest := ref[len("data:"):]
	i := strings.IndexByte(rest, ',')
	if i < 0 {
		return nil, "", errInvalidDataURL
	}
	meta, payload := rest[:i], rest[i+1:]
	declared := meta
	if j := strings.IndexByte(meta, ';'); j >= 0 {
		declared = meta[:j]
	}
	if !strings.Contains(meta, "base64") {
		return nil, "", errInvalidDataURL
	}
	body, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, "", err
	}
	return body, declared, nil
}

var errInvalidDataURL = errors.New("invalid data URL")

func truncateRef(ref string) string {
	if len(ref) > 120 {
		return ref[:120] + "..."
	}
	return ref
}
