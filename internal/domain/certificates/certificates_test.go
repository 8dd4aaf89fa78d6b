package certificates

import (
	"bytes"
	"context"
	"errors"
	"image/png"
	"strconv"
	"strings"
	"testing"
	"time"

	memstore "wcu-registry/internal/adapters/objectstore/memory"
	"wcu-registry/internal/domain/registrations"
	"wcu-registry/internal/ports/objectstore"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runeWidth: 1 unidad por rune, hace los tests independientes de la fuente.
func runeWidth(s string) float64 { return float64(len([]rune(s))) }

func TestWrapText_GreedyWords(t *testing.T) {
	got := WrapText("the quick brown fox jumps over the lazy dog", 10, runeWidth)
	assert.Equal(t, []string{"the quick", "brown fox", "jumps over", "the lazy", "dog"}, got)
	for _, l := range got {
		assert.LessOrEqual(t, runeWidth(l), 10.0)
	}
}

func TestWrapText_HardSplitsLongWords(t *testing.T) {
	got := WrapText("a supercalifragilistic b", 6, runeWidth)
	assert.Equal(t, []string{"a", "superc", "alifra", "gilist", "ic b"}, got)
}

func TestWrapText_Paragraphs(t *testing.T) {
	got := WrapText("\nfirst line\r\n\nsecond\n\n", 20, runeWidth)
	assert.Equal(t, []string{"first line", "", "second"}, got)
}

func TestWrapText_Empty(t *testing.T) {
	assert.Empty(t, WrapText("   ", 10, runeWidth))
}

func TestClampLines_AddsEllipsisWithinWidth(t *testing.T) {
	lines := []string{"aaaa bbbb", "cccc dddd", "eeee ffff"}
	got := ClampLines(lines, 2, 9, runeWidth)
	require.Len(t, got, 2)
	assert.Equal(t, "aaaa bbbb", got[0])
	assert.True(t, strings.HasSuffix(got[1], ellipsis))
	assert.LessOrEqual(t, runeWidth(got[1]), 9.0)

	assert.Equal(t, lines, ClampLines(lines, 3, 9, runeWidth))
	assert.Equal(t, lines, ClampLines(lines, 0, 9, runeWidth))
}

func sampleRegistration() registrations.Registration {
	born := time.Date(2014, 4, 2, 0, 0, 0, 0, time.UTC)
	return registrations.Registration{
		ID:         "reg-1",
		WCUNumber:  "WCU-00042",
		OwnerName:  "Ana Pérez",
		OwnerEmail: "ana@example.com",
		DogName:    "Luna",
		Breed:      "Border Collie",
		Sex:        registrations.SexFemale,
		Color:      "Black & white",
		BirthDate:  &born,
		Bio:        strings.Repeat("Loves long walks on the beach and chasing frisbees. ", 30),
		Status:     registrations.StatusRegistered,
		CreatedAt:  time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func sampleOptions() Options {
	return Options{
		RegistryName: "WCU Dog Registry",
		SiteURL:      "https://registry.example.com/",
		IssuedAt:     time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestBuildLayout_Registered(t *testing.T) {
	l := BuildLayout(sampleRegistration(), sampleOptions())
	assert.False(t, l.Memorial)

	heading, ok := l.Block("heading")
	require.True(t, ok)
	assert.Equal(t, []string{"Certificate of Registration"}, heading.Lines)

	url, ok := l.Block("profile_url")
	require.True(t, ok)
	assert.Equal(t, []string{"https://registry.example.com/dogs/WCU-00042"}, url.Lines)

	story, ok := l.Block("story")
	require.True(t, ok)
	assert.Len(t, story.Lines, storyMaxLines)
	assert.True(t, strings.HasSuffix(story.Lines[len(story.Lines)-1], ellipsis))

	// Todo dentro de la página y cada línea dentro de su caja.
	for _, b := range l.Blocks {
		assert.GreaterOrEqual(t, b.X, 0.0, b.Name)
		assert.LessOrEqual(t, b.X+b.Width, PageWidth, b.Name)
		assert.LessOrEqual(t, b.Y+float64(len(b.Lines))*b.LineHeight, PageHeight, b.Name)
		for _, line := range b.Lines {
			assert.LessOrEqual(t, GoFontMeasure(line, b.Style, b.SizePt), b.Width+0.01, b.Name)
		}
	}

	_, hasPassed := l.Block("value_date_of_passing")
	assert.False(t, hasPassed)
}

func TestBuildLayout_Memorial(t *testing.T) {
	reg := sampleRegistration()
	passed := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	reg.Status = registrations.StatusMemorial
	reg.DateOfPassing = &passed
	reg.TributeMessage = "Forever our good girl."

	l := BuildLayout(reg, sampleOptions())
	assert.True(t, l.Memorial)

	heading, _ := l.Block("heading")
	assert.Equal(t, []string{"In Loving Memory"}, heading.Lines)

	passedBlock, ok := l.Block("value_date_of_passing")
	require.True(t, ok)
	assert.Equal(t, []string{"March 1, 2025"}, passedBlock.Lines)

	story, _ := l.Block("story")
	assert.Equal(t, StyleItalic, story.Style)
	assert.Equal(t, []string{"Forever our good girl."}, story.Lines)
}

func TestBuildLayout_LongDogNameWrapsToTwoLines(t *testing.T) {
	reg := sampleRegistration()
	reg.DogName = strings.Repeat("Sir Barkington ", 12)

	l := BuildLayout(reg, sampleOptions())
	name, _ := l.Block("dog_name")
	assert.Len(t, name.Lines, 2)
	assert.True(t, strings.HasSuffix(name.Lines[1], ellipsis))
}

func TestRenderPDF(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, sampleRegistration(), sampleOptions()))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
	assert.Greater(t, buf.Len(), 1000)
}

func TestRenderCard_IsPNG(t *testing.T) {
	reg := sampleRegistration()
	reg.Status = registrations.StatusMemorial

	var buf bytes.Buffer
	require.NoError(t, RenderCard(&buf, CardFor(reg, sampleOptions())))

	img, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, CardWidth, img.Bounds().Dx())
	assert.Equal(t, CardHeight, img.Bounds().Dy())
}

// -------------------------
// Issuer
// -------------------------

type fakeRegs struct {
	byID map[string]registrations.Registration
}

func (f *fakeRegs) GetByID(ctx context.Context, id string) (registrations.Registration, error) {
	r, ok := f.byID[id]
	if !ok {
		return registrations.Registration{}, registrations.ErrNotFound
	}
	return r, nil
}

func (f *fakeRegs) GetByWCU(ctx context.Context, wcu string) (registrations.Registration, error) {
	for _, r := range f.byID {
		if r.WCUNumber == wcu {
			return r, nil
		}
	}
	return registrations.Registration{}, registrations.ErrNotFound
}

func (f *fakeRegs) AttachCertificate(ctx context.Context, id, key, url string, at time.Time) (registrations.Registration, error) {
	r, ok := f.byID[id]
	if !ok {
		return registrations.Registration{}, registrations.ErrNotFound
	}
	r.CertificateKey, r.CertificateURL, r.CertificateIssuedAt = key, url, &at
	f.byID[id] = r
	return r, nil
}

func TestIssuer_IssueAndReissue(t *testing.T) {
	reg := sampleRegistration()
	regs := &fakeRegs{byID: map[string]registrations.Registration{reg.ID: reg}}
	store := memstore.New("http://localhost:8080/files")
	iss := NewIssuer(regs, store, sampleOptions(), nil, nil)

	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	iss.now = func() time.Time { return now }

	first, err := iss.Issue(context.Background(), reg.ID)
	require.NoError(t, err)
	assert.Equal(t, "certificates/WCU-00042/"+strconv.FormatInt(now.Unix(), 10)+".pdf", first.CertificateKey)
	assert.Equal(t, "http://localhost:8080/files/"+first.CertificateKey, first.CertificateURL)

	now = now.Add(time.Hour)
	second, err := iss.Issue(context.Background(), reg.ID)
	require.NoError(t, err)
	assert.NotEqual(t, first.CertificateKey, second.CertificateKey)

	// El anterior se borró.
	assert.Equal(t, []string{second.CertificateKey}, store.Keys())

	url, err := iss.URL(context.Background(), "wcu-42")
	require.NoError(t, err)
	assert.Equal(t, second.CertificateURL, url)
}

func TestIssuer_RejectsPendingPayment(t *testing.T) {
	reg := sampleRegistration()
	reg.Status = registrations.StatusPendingPayment
	regs := &fakeRegs{byID: map[string]registrations.Registration{reg.ID: reg}}
	iss := NewIssuer(regs, memstore.New(""), sampleOptions(), nil, nil)

	_, err := iss.Issue(context.Background(), reg.ID)
	assert.True(t, errors.Is(err, ErrNotEligible))

	// Tampoco es visible por WCU.
	err = iss.Card(context.Background(), &bytes.Buffer{}, reg.WCUNumber)
	assert.ErrorIs(t, err, registrations.ErrNotFound)
}

func TestIssuer_URLWithoutCertificate(t *testing.T) {
	reg := sampleRegistration()
	regs := &fakeRegs{byID: map[string]registrations.Registration{reg.ID: reg}}
	iss := NewIssuer(regs, memstore.New(""), sampleOptions(), nil, nil)

	_, err := iss.URL(context.Background(), reg.WCUNumber)
	assert.ErrorIs(t, err, objectstore.ErrNotFound)
}
