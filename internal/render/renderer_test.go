package render

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testOptions = Options{
	Issuer:       "THARUNADITYA.DEV",
	SignerName:   "Tharunaditya Anuganti",
	SignerTitle:  "Content Creator & Security Researcher",
	VerifyURL:    "tharunaditya.dev/verify",
	BadgeTimeout: time.Second,
}

var testCert = Certificate{
	Name:           "Jane Doe",
	Series:         "Intro to Cryptography",
	Date:           "2024-05-01",
	CredentialID:   "1-eyJuIjoiSmFuZSBEb2UiLCJzIjoiSW50cm8gdG8gQ3J5cHRvZ3JhcGh5IiwiZCI6IjIwMjQtMDUtMDEiLCJ0IjoxNzE0NTIxNjAwMDAwfQ==-2E36EE33",
	PartsCompleted: 5,
}

type stubFetcher struct {
	img image.Image
	err error
}

func (s *stubFetcher) Fetch(ctx context.Context, url string) (image.Image, error) {
	return s.img, s.err
}

func solid(c color.Color) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, 16, 16))
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

var badgeCenter = image.Pt(Width/2, badgeTop+badgeSize/2)

func TestRender_Deterministic(t *testing.T) {
	r := NewRenderer(testOptions, nil, zerolog.Nop())

	a, err := r.Render(context.Background(), testCert)
	require.NoError(t, err)
	b, err := r.Render(context.Background(), testCert)
	require.NoError(t, err)

	assert.Equal(t, image.Rect(0, 0, Width, Height), a.Bounds())
	assert.True(t, bytes.Equal(a.Pix, b.Pix))

	other := testCert
	other.Name = "John Doe"
	c, err := r.Render(context.Background(), other)
	require.NoError(t, err)
	assert.False(t, bytes.Equal(a.Pix, c.Pix))
}

func TestRender_Badge(t *testing.T) {
	red := color.RGBA{0xff, 0, 0, 0xff}
	r := NewRenderer(testOptions, &stubFetcher{img: solid(red)}, zerolog.Nop())

	cert := testCert
	cert.BadgeURL = "https://example.com/badge.png"
	img, err := r.Render(context.Background(), cert)
	require.NoError(t, err)

	got := img.RGBAAt(badgeCenter.X, badgeCenter.Y)
	assert.Greater(t, got.R, uint8(0xf0))
	assert.Less(t, got.G, uint8(0x10))
}

func TestRender_BadgeFailureUsesPlaceholder(t *testing.T) {
	r := NewRenderer(testOptions, &stubFetcher{err: errors.New("offline")}, zerolog.Nop())

	cert := testCert
	cert.BadgeURL = "https://example.com/badge.png"
	img, err := r.Render(context.Background(), cert)
	require.NoError(t, err)

	got := img.RGBAAt(badgeCenter.X, badgeCenter.Y)
	assert.Greater(t, got.G, got.R)

	plain, err := r.Render(context.Background(), testCert)
	require.NoError(t, err)
	assert.NotEqual(t, got, plain.RGBAAt(badgeCenter.X, badgeCenter.Y))
}

func TestRender_QRCodeQuietZone(t *testing.T) {
	r := NewRenderer(testOptions, nil, zerolog.Nop())

	img, err := r.Render(context.Background(), testCert)
	require.NoError(t, err)

	corner := image.Pt(Width-60-qrSize-4, Height-80-qrSize-4)
	assert.Equal(t, color.RGBA{0xff, 0xff, 0xff, 0xff}, img.RGBAAt(corner.X, corner.Y))
}

func TestRender_CanceledContext(t *testing.T) {
	r := NewRenderer(testOptions, nil, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := r.Render(ctx, testCert)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestHTTPBadgeFetcher(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/badge.png":
			w.Header().Set("Content-Type", "image/png")
			png.Encode(w, solid(color.RGBA{0, 0, 0xff, 0xff}))
		case "/text":
			w.Write([]byte("not an image"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	f := &HTTPBadgeFetcher{Client: srv.Client()}

	img, err := f.Fetch(context.Background(), srv.URL+"/badge.png")
	require.NoError(t, err)
	assert.Equal(t, 16, img.Bounds().Dx())

	_, err = f.Fetch(context.Background(), srv.URL+"/missing.png")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 404")

	_, err = f.Fetch(context.Background(), srv.URL+"/text")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to decode badge")
}

func TestEncodePNG(t *testing.T) {
	r := NewRenderer(testOptions, nil, zerolog.Nop())
	img, err := r.Render(context.Background(), testCert)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, EncodePNG(&buf, img))

	decoded, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, img.Bounds(), decoded.Bounds())
}

func TestFormatDate(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"2024-05-01", "May 1, 2024"},
		{"2024-12-25T23:30:00Z", "December 25, 2024"},
		{"2024-12-25T23:30:00-05:00", "December 25, 2024"},
		{"yesterday", "yesterday"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatDate(tt.in))
		})
	}
}

func TestVerificationLink(t *testing.T) {
	r := NewRenderer(testOptions, nil, zerolog.Nop())
	assert.Equal(t, "https://tharunaditya.dev/verify?id=1-ab%2Bc%3D%3D-00FF", r.VerificationLink("1-ab+c==-00FF"))

	opts := testOptions
	opts.VerifyURL = "http://localhost:8080/verify?lang=en"
	r = NewRenderer(opts, nil, zerolog.Nop())
	assert.Equal(t, "http://localhost:8080/verify?lang=en&id=x", r.VerificationLink("x"))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 5))
	assert.Equal(t, "ab...", truncate("abcdef", 2))
}

func TestFaces_CoverAccentedAndCyrillicNames(t *testing.T) {
	fonts := newFaces()
	defer fonts.Close()

	for _, bold := range []bool{false, true} {
		face := fonts.get(bold, 40)
		for _, name := range []string{"José Ñúñez", "ZOË BRONTË", "Дмитрий Ωμέγα", "Łukasz Żółć"} {
			assert.Empty(t, missingGlyphs(face, name), "bold=%v name=%q", bold, name)
			for _, r := range name {
				if r == ' ' {
					continue
				}
				_, ok := face.GlyphAdvance(r)
				assert.True(t, ok, "no glyph for %q", r)
			}
		}
		assert.Equal(t, []rune{'李'}, missingGlyphs(face, "Zoë 李"))
	}
}

func TestFaces_Fit(t *testing.T) {
	fonts := newFaces()
	defer fonts.Close()

	short := fonts.fit("JANE DOE", true, 56, 28, 800)
	assert.Equal(t, fonts.get(true, 56), short)

	long := strings.Repeat("W", 80)
	narrow := fonts.fit(long, true, 56, 28, 800)
	assert.Equal(t, fonts.get(true, 28), narrow)
}

func TestRender_NonASCIINameDrawsGlyphs(t *testing.T) {
	r := NewRenderer(testOptions, nil, zerolog.Nop())

	accented := testCert
	accented.Name = "José Ñúñez"
	plain := testCert
	plain.Name = "Jose Nunez"

	a, err := r.Render(context.Background(), accented)
	require.NoError(t, err)
	b, err := r.Render(context.Background(), plain)
	require.NoError(t, err)

	// Accents sit above the cap height, so the two names differ in the name band
	nameBand := image.Rect(200, 220, Width-200, 300)
	differs := false
	for y := nameBand.Min.Y; y < nameBand.Max.Y && !differs; y++ {
		for x := nameBand.Min.X; x < nameBand.Max.X; x++ {
			if a.RGBAAt(x, y) != b.RGBAAt(x, y) {
				differs = true
				break
			}
		}
	}
	assert.True(t, differs)
}
