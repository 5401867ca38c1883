package sources

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Ramsey-B/banyan/pkg/crawler"
	"github.com/Ramsey-B/banyan/pkg/httpclient"
	"github.com/Ramsey-B/banyan/pkg/models"
)

type fakeClassifier struct {
	raw json.RawMessage
	err error
}

func (c *fakeClassifier) Classify(_ context.Context, _ string) (json.RawMessage, error) {
	return c.raw, c.err
}

func leadershipSite(t *testing.T) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<html><body><h1>Our Leadership</h1>
			<p>Alice Johnson, Chief Executive Officer</p>
			<p>Wei Zhang, Chief Financial Officer</p>
		</body></html>`))
	}))
	return server
}

func newWebSource(classifier *fakeClassifier) *WebSource {
	client := httpclient.NewClient(httpclient.DefaultConfig(), zap.NewNop(), nil, nil)
	return NewWebSource(crawler.New(client, zap.NewNop()), classifier, zap.NewNop())
}

func testWebUnit(website string) *models.BusinessUnit {
	return &models.BusinessUnit{ID: "unit-1", Name: "Acme", Website: website}
}

func TestWebSource_CollectExtractsPeople(t *testing.T) {
	server := leadershipSite(t)
	defer server.Close()

	source := newWebSource(&fakeClassifier{
		raw: json.RawMessage(`[
			{"name": "Alice Johnson", "title": "Chief Executive Officer"},
			{"name": "Wei Zhang", "title": "CFO", "email": "wei@acme.example", "is_board_member": true}
		]`),
	})

	out, err := source.Collect(context.Background(), testWebUnit(server.URL), Budget{MaxPages: 3, MaxDepth: 1})
	require.NoError(t, err)
	assert.Empty(t, out.Errors)
	require.Len(t, out.People, 2)

	alice := out.People[0]
	assert.Equal(t, "Alice Johnson", alice.FullName)
	assert.Equal(t, "Chief Executive Officer", alice.Title)
	assert.Equal(t, models.ConfidenceHigh, alice.Confidence)
	assert.True(t, alice.IsExecutive)
	assert.Equal(t, "web", alice.ProvenanceNote)
	assert.Contains(t, alice.SourceURL, server.URL)

	wei := out.People[1]
	assert.Equal(t, "wei@acme.example", wei.Email)
	assert.True(t, wei.IsBoardMember)
}

func TestWebSource_ExtractionFailureIsAWarning(t *testing.T) {
	server := leadershipSite(t)
	defer server.Close()

	source := newWebSource(&fakeClassifier{err: errors.New("service unavailable")})

	out, err := source.Collect(context.Background(), testWebUnit(server.URL), Budget{MaxPages: 3, MaxDepth: 1})
	require.NoError(t, err)
	assert.Empty(t, out.People)
	require.Len(t, out.Errors, 1)
	assert.Contains(t, out.Errors[0], "extraction call failed")
}

func TestWebSource_UnusableReplyYieldsNothing(t *testing.T) {
	server := leadershipSite(t)
	defer server.Close()

	source := newWebSource(&fakeClassifier{raw: nil})

	out, err := source.Collect(context.Background(), testWebUnit(server.URL), Budget{MaxPages: 3, MaxDepth: 1})
	require.NoError(t, err)
	assert.Empty(t, out.People)
	assert.Empty(t, out.Errors)
}

func TestWebSource_Applicable(t *testing.T) {
	source := newWebSource(&fakeClassifier{})
	assert.True(t, source.Applicable(testWebUnit("https://acme.example")))
	assert.False(t, source.Applicable(testWebUnit("")))
	assert.False(t, source.Applicable(nil))
}

func TestRankLeadershipPages(t *testing.T) {
	pages := []crawler.Page{
		{URL: "https://acme.example/contact", Depth: 1},
		{URL: "https://acme.example/about/leadership", Depth: 2},
		{URL: "https://acme.example/about", Depth: 1},
	}

	ranked := rankLeadershipPages(pages)
	require.Len(t, ranked, 2)
	assert.Equal(t, "https://acme.example/about/leadership", ranked[0].URL)
	assert.Equal(t, "https://acme.example/about", ranked[1].URL)
}

func TestRankLeadershipPages_NoHintsFallsBackToShallowest(t *testing.T) {
	pages := []crawler.Page{
		{URL: "https://acme.example/products", Depth: 2},
		{URL: "https://acme.example/", Depth: 0},
	}

	ranked := rankLeadershipPages(pages)
	require.Len(t, ranked, 1)
	assert.Equal(t, "https://acme.example/", ranked[0].URL)
}
