package fetch

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tablePage = `<html><head><title> Aussie NBN Plans </title><script>var x = "$1";</script></head>
<body>
<nav>Home | Plans</nav>
<table class="table">
  <tr><th>Plan</th><th>Speed</th><th>Price</th></tr>
  <tr><td>NBN 100/20</td><td>100Mbps</td><td>$89.00/mth</td></tr>
  <tr><td>NBN 250/25</td><td>250Mbps</td><td>$109.00/mth</td></tr>
</table>
<footer>Copyright</footer>
</body></html>`

func TestExtractPrefersTables(t *testing.T) {
	page, err := Extract("https://example.com/nbn", tablePage, 0)
	require.NoError(t, err)

	assert.Equal(t, "Aussie NBN Plans", page.Title)
	assert.Equal(t, StrategyTable, page.Strategy)
	require.Len(t, page.Sections, 1)
	assert.Contains(t, page.Text, "NBN 100/20 | 100Mbps | $89.00/mth")
	assert.NotContains(t, page.Text, "Copyright")
	assert.NotContains(t, page.Text, "var x")
	assert.False(t, page.Truncated)
}

func TestExtractSwiperSlides(t *testing.T) {
	raw := `<html><body>
<div class="swiper"><div class="swiper-wrapper">
  <div class="swiper-slide">
    <h3>NBN 50</h3>
    <p>$75 per month</p>
  </div>
  <div class="swiper-slide">
    <h3>NBN 100</h3>
    <p>$89 per month</p>
  </div>
</div></div></body></html>`

	page, err := Extract("https://example.com", raw, 0)
	require.NoError(t, err)

	assert.Equal(t, StrategySwiper, page.Strategy)
	require.Len(t, page.Sections, 2)
	assert.Equal(t, "NBN 100 $89 per month", page.Sections[1].Text)
}

func TestExtractInnermostPlanCards(t *testing.T) {
	raw := `<html><body><div class="plans-grid">
  <div class="plan-card"><span>Superfast</span> <span>$129</span></div>
  <div class="plan-card"><span>Basic</span> <span>$59</span></div>
  <div class="plan-footer">Terms apply</div>
</div></body></html>`

	page, err := Extract("https://example.com", raw, 0)
	require.NoError(t, err)

	assert.Equal(t, StrategyPlan, page.Strategy)
	require.Len(t, page.Sections, 2)
	assert.Equal(t, "Superfast $129", page.Sections[0].Text)
}

func TestExtractFallsBackToBodyText(t *testing.T) {
	raw := `<html><body><div><p>Call us for pricing.</p><style>p{}</style></div></body></html>`

	page, err := Extract("https://example.com", raw, 0)
	require.NoError(t, err)

	assert.Empty(t, page.Sections)
	assert.Equal(t, StrategyBody, page.Strategy)
	assert.Equal(t, "Call us for pricing.", page.Text)
}

func TestExtractUsesReadableArticle(t *testing.T) {
	para := "Our fibre upgrade brings faster home internet to more suburbs this year, " +
		"with installation handled by a local technician and no lock-in contract required. "
	var body strings.Builder
	for i := 0; i < 6; i++ {
		body.WriteString("<p>" + para + "</p>\n")
	}
	raw := `<html><head><title>Fibre upgrade news</title></head><body>
<div class="sidebar"><a href="/a">Link</a></div>
<article><h1>Fibre upgrade news</h1>
` + body.String() + `</article></body></html>`

	page, err := Extract("https://example.com/news/fibre", raw, 0)
	require.NoError(t, err)

	assert.Empty(t, page.Sections)
	assert.Equal(t, StrategyArticle, page.Strategy)
	assert.GreaterOrEqual(t, len(page.Text), minArticleChars)
	assert.Contains(t, page.Text, "no lock-in contract required.")
	assert.NotContains(t, page.Text, "\n")
}

func TestExtractTruncates(t *testing.T) {
	raw := "<html><body><table><tr><td>" + strings.Repeat("a", 500) + "</td></tr></table></body></html>"

	page, err := Extract("https://example.com", raw, 100)
	require.NoError(t, err)

	assert.True(t, page.Truncated)
	assert.True(t, strings.HasSuffix(page.Text, "... (truncated)"))
	assert.Equal(t, strings.Repeat("a", 100)+" ... (truncated)", page.Text)
}

func TestNormalizeText(t *testing.T) {
	assert.Equal(t, "a b c", normalizeText("  a \n\n  b\t\n c  "))
	assert.Equal(t, "", normalizeText("\n \n"))

	long := strings.Repeat("x", 2<<20)
	assert.Equal(t, long+" tail", normalizeText(long+"\n tail"))
}

func TestTruncateBacksOffToRuneBoundary(t *testing.T) {
	text, cut := truncate("ab€cd", 3)
	assert.True(t, cut)
	assert.Equal(t, "ab ... (truncated)", text)
}
