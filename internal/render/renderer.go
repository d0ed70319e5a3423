package render

import (
	"context"
	"fmt"
	"image"
	"image/png"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/qr"
	"github.com/rs/zerolog"
	xdraw "golang.org/x/image/draw"
)

// Certificate dimensions (A4-ish landscape)
const (
	Width  = 1200
	Height = 850

	badgeSize = 120
	badgeTop  = 510
	qrSize    = 100
)

// Certificate is what gets drawn
type Certificate struct {
	Name           string
	Series         string
	Date           string
	CredentialID   string
	PartsCompleted int
	BadgeURL       string
}

// Options configures the fixed parts of the certificate
type Options struct {
	Issuer       string
	SignerName   string
	SignerTitle  string
	VerifyURL    string
	BadgeTimeout time.Duration
}

// Renderer draws certificate images
type Renderer struct {
	opts   Options
	badges BadgeFetcher
	logger zerolog.Logger
}

// NewRenderer creates a renderer. A nil fetcher disables badges.
func NewRenderer(opts Options, badges BadgeFetcher, logger zerolog.Logger) *Renderer {
	return &Renderer{
		opts:   opts,
		badges: badges,
		logger: logger,
	}
}

// Render draws the certificate. Badge and QR failures are drawn around, not returned.
func (r *Renderer) Render(ctx context.Context, cert Certificate) (*image.RGBA, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	img := image.NewRGBA(image.Rect(0, 0, Width, Height))
	fillGradient(img)

	// Borders
	strokeRect(img, image.Rect(20, 20, Width-20, Height-20), 3, colorAccent)
	strokeRect(img, image.Rect(35, 35, Width-35, Height-35), 1, withAlpha(colorAccent, 0x4d))

	drawCorner(img, 20, 20, 60, 1, 1)
	drawCorner(img, Width-20, 20, 60, -1, 1)
	drawCorner(img, 20, Height-20, 60, 1, -1)
	drawCorner(img, Width-20, Height-20, 60, -1, -1)

	drawCircuit(img, 50, 100, 100, 200)
	drawCircuit(img, Width-150, 100, 100, 200)
	drawCircuit(img, 50, Height-300, 100, 200)
	drawCircuit(img, Width-150, Height-300, 100, 200)

	fonts := newFaces()
	defer fonts.Close()

	center := Width / 2
	textMax := Width - 400

	drawText(img, fonts.get(true, 24), r.opts.Issuer, center, 70, colorAccent, alignCenter)
	drawText(img, fonts.get(true, 48), "CERTIFICATE OF COMPLETION", center, 140, colorWhite, alignCenter)
	hline(img, 300, 900, 160, 2, colorAccent)

	drawText(img, fonts.get(false, 24), "This is to certify that", center, 220, colorMuted, alignCenter)

	name := strings.ToUpper(cert.Name)
	nameFace := fonts.fit(name, true, 56, 28, textMax)
	if missing := missingGlyphs(nameFace, name); len(missing) > 0 {
		r.logger.Warn().Str("runes", string(missing)).Msg("Certificate font has no glyphs for part of the name")
	}
	nameBox := drawText(img, nameFace, name, center, 280, colorAccent, alignCenter)
	if !nameBox.Empty() {
		hline(img, nameBox.Min.X-20, nameBox.Max.X+20, 295, 1, colorAccent)
	}

	drawText(img, fonts.get(false, 24), "has successfully completed the", center, 350, colorMuted, alignCenter)
	drawText(img, fonts.fit(cert.Series, true, 36, 20, textMax), cert.Series, center, 400, colorWhite, alignCenter)
	drawText(img, fonts.get(false, 20), fmt.Sprintf("Comprising %d comprehensive parts", cert.PartsCompleted), center, 440, colorMuted, alignCenter)
	drawText(img, fonts.get(false, 22), "Completed on "+FormatDate(cert.Date), center, 490, colorWhite, alignCenter)

	if cert.BadgeURL != "" {
		r.drawBadge(ctx, img, cert.BadgeURL)
	}

	// Signature block
	drawText(img, fonts.get(true, 22), r.opts.SignerName, center, 700, colorWhite, alignCenter)
	hline(img, center-120, center+120, 710, 1, colorWhite)
	drawText(img, fonts.get(false, 16), r.opts.SignerTitle, center, 735, colorMuted, alignCenter)

	drawText(img, fonts.get(false, 14), "Credential ID: "+truncate(cert.CredentialID, 50), 60, Height-50, colorAccent, alignLeft)
	drawText(img, fonts.get(false, 14), "Verify at: "+r.opts.VerifyURL, Width-60, Height-50, colorMuted, alignRight)

	r.drawQR(img, cert.CredentialID)

	return img, nil
}

func (r *Renderer) drawBadge(ctx context.Context, img *image.RGBA, badgeURL string) {
	rect := image.Rect(Width/2-badgeSize/2, badgeTop, Width/2+badgeSize/2, badgeTop+badgeSize)

	if r.badges != nil {
		fetchCtx := ctx
		if r.opts.BadgeTimeout > 0 {
			var cancel context.CancelFunc
			fetchCtx, cancel = context.WithTimeout(ctx, r.opts.BadgeTimeout)
			defer cancel()
		}

		badge, err := r.badges.Fetch(fetchCtx, badgeURL)
		if err == nil {
			fillCircle(img, image.Pt(Width/2, badgeTop+badgeSize/2), badgeSize/2+10, withAlpha(colorAccent, 0x26))
			xdraw.CatmullRom.Scale(img, rect, badge, badge.Bounds(), xdraw.Over, nil)
			return
		}
		r.logger.Warn().Err(err).Str("badge_url", badgeURL).Msg("Badge could not be loaded")
	}

	// Placeholder
	c := image.Pt(Width/2, badgeTop+badgeSize/2)
	fillCircle(img, c, badgeSize/2, withAlpha(colorAccent, 0x4d))
	fillCircle(img, c, badgeSize/2-8, colorBackgroundMid)
	fillCircle(img, c, 12, withAlpha(colorAccent, 0x4d))
}

// VerificationLink is the URL encoded in the certificate's QR code
func (r *Renderer) VerificationLink(credentialID string) string {
	base := r.opts.VerifyURL
	if !strings.Contains(base, "://") {
		base = "https://" + base
	}
	sep := "?"
	if strings.Contains(base, "?") {
		sep = "&"
	}
	return base + sep + "id=" + url.QueryEscape(credentialID)
}

func (r *Renderer) drawQR(img *image.RGBA, credentialID string) {
	code, err := qr.Encode(r.VerificationLink(credentialID), qr.M, qr.Auto)
	if err != nil {
		r.logger.Warn().Err(err).Msg("Verification QR code skipped")
		return
	}

	size := qrSize
	if w := code.Bounds().Dx(); w > size {
		size = w
	}
	scaled, err := barcode.Scale(code, size, size)
	if err != nil {
		r.logger.Warn().Err(err).Msg("Verification QR code skipped")
		return
	}

	// Light quiet zone so scanners find the code on the dark background
	origin := image.Pt(Width-60-size, Height-80-size)
	area := image.Rect(origin.X, origin.Y, origin.X+size, origin.Y+size)
	fillRect(img, area.Inset(-6), colorWhite)
	xdraw.Copy(img, origin, scaled, scaled.Bounds(), xdraw.Src, nil)
}

// EncodePNG writes img as PNG
func EncodePNG(w io.Writer, img image.Image) error {
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("failed to encode certificate image: %w", err)
	}
	return nil
}
