package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

func TestLoadPlans(t *testing.T) {
	raw := `
provider: Example Telco
plans:
  - url: https://example.com/nbn
    plan_name: NBN 100/20
    download_speed: 100
    upload_speed: 20
    price: 89
  - url: https://other.example/nbn
    provider: Other
    plan_name: NBN 50/20
    download_speed: 50
    upload_speed: 20
`
	plans, err := loadPlans(strings.NewReader(raw))
	require.NoError(t, err)
	require.Len(t, plans, 2)

	assert.Equal(t, "Example Telco", plans[0].Provider)
	require.NotNil(t, plans[0].Price)
	assert.Equal(t, 89.0, *plans[0].Price)
	assert.Equal(t, "Other", plans[1].Provider)
	assert.Nil(t, plans[1].Price)
}

func TestLoadPlansRejects(t *testing.T) {
	cases := map[string]string{
		"empty":         "plans: []\n",
		"unknown field": "plans:\n  - url: u\n    plan_name: p\n    download_speed: 1\n    colour: red\n",
		"no speed":      "plans:\n  - url: u\n    plan_name: p\n",
	}
	for name, raw := range cases {
		_, err := loadPlans(strings.NewReader(raw))
		assert.Error(t, err, name)
	}
}

func TestValidateCommand(t *testing.T) {
	var out bytes.Buffer
	a := newApp()
	a.Writer = &out
	a.ExitErrHandler = func(*cli.Context, error) {}

	path := filepath.Join(t.TempDir(), "out.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"plan_name":"NBN 100/20","price":"$89.00","price_string":"$89.00/mth","download_speed":"100Mbps","upload_speed":"20Mbps","promotion_details":null,"plan_details":"Unlimited","verified":true,"confidence":0.9,"match_criteria":{"speed_match":false}}`), 0o644))

	require.NoError(t, a.Run([]string{"smartscraper", "validate", "--speed", "100", path}))
	assert.Contains(t, out.String(), `"price": 89`)
	assert.Contains(t, out.String(), `"speed_match": true`)
}

func TestValidateCommandExitCodes(t *testing.T) {
	a := newApp()
	a.Writer = &bytes.Buffer{}
	a.ExitErrHandler = func(*cli.Context, error) {}

	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"plan_name": "x"}`), 0o644))

	err := a.Run([]string{"smartscraper", "validate", "--speed", "100", path})
	require.Error(t, err)
	var coder cli.ExitCoder
	require.ErrorAs(t, err, &coder)
	assert.Equal(t, 3, coder.ExitCode())
	assert.Contains(t, err.Error(), "model output: ")

	a = newApp()
	a.Writer = &bytes.Buffer{}
	a.ExitErrHandler = func(*cli.Context, error) {}
	err = a.Run([]string{"smartscraper", "validate", "--speed", "100", "--url", "https://example.com/nbn", path})
	require.ErrorAs(t, err, &coder)
	assert.Equal(t, 3, coder.ExitCode())
	assert.True(t, strings.HasPrefix(err.Error(), "https://example.com/nbn: "), err.Error())
}
