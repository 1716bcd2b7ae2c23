package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rudderlabs/rudder-go-kit/config"
	"github.com/rudderlabs/rudder-go-kit/logger"

	"github.com/Neumenon/replica/replica"
)

func run(t *testing.T, conf *config.Config, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	app := newApp(conf, logger.NOP, strings.NewReader(stdin), &out)
	err := app.Run(append([]string{"replica"}, args...))
	return out.String(), err
}

func TestClone(t *testing.T) {
	out, err := run(t, config.New(), `{"b":[1,2],"a":{"c":null}}`, "clone")
	require.NoError(t, err)
	require.Equal(t, `{"b":[1,2],"a":{"c":null}}`+"\n", out)
}

func TestClone_Path(t *testing.T) {
	out, err := run(t, config.New(), `{"b":[1,2],"a":{"c":null}}`, "clone", "--path", "b")
	require.NoError(t, err)
	require.Equal(t, "[1,2]\n", out)

	_, err = run(t, config.New(), `{"b":1}`, "clone", "--path", "missing")
	require.ErrorContains(t, err, `path "missing" matches nothing`)
}

func TestClone_File(t *testing.T) {
	name := filepath.Join(t.TempDir(), "doc.json")
	require.NoError(t, os.WriteFile(name, []byte(`{"x":true}`), 0o600))

	out, err := run(t, config.New(), "", "clone", name)
	require.NoError(t, err)
	require.Equal(t, `{"x":true}`+"\n", out)

	_, err = run(t, config.New(), "", "clone", filepath.Join(t.TempDir(), "absent.json"))
	require.ErrorContains(t, err, "read input")
}

func TestClone_MaxDepth(t *testing.T) {
	_, err := run(t, config.New(), `{"a":{}}`, "clone", "--max-depth", "1")
	require.ErrorIs(t, err, replica.ErrMaxDepth)

	t.Run("from config", func(t *testing.T) {
		conf := config.New()
		conf.Set("Clone.maxDepth", 1)

		_, err := run(t, conf, `{"a":{}}`, "clone")
		require.ErrorIs(t, err, replica.ErrMaxDepth)

		out, err := run(t, conf, `{"a":{}}`, "clone", "--max-depth", "0")
		require.NoError(t, err)
		require.Equal(t, `{"a":{}}`+"\n", out)
	})

	_, err = run(t, config.New(), `{}`, "clone", "--max-depth", "-1")
	require.Error(t, err)
}

func TestClone_Cycles(t *testing.T) {
	out, err := run(t, config.New(), `[1]`, "clone", "--cycles", "share")
	require.NoError(t, err)
	require.Equal(t, "[1]\n", out)

	_, err = run(t, config.New(), `[1]`, "clone", "--cycles", "ignore")
	require.Error(t, err)

	conf := config.New()
	conf.Set("Clone.cyclePolicy", "bogus")
	_, err = run(t, conf, `[1]`, "clone")
	require.Error(t, err)
}

func TestClone_ExtendedDates(t *testing.T) {
	in := `{"when":{"$date":1000}}`

	out, err := run(t, config.New(), in, "clone")
	require.NoError(t, err)
	require.Equal(t, in+"\n", out)

	out, err = run(t, config.New(), in, "clone", "--extended")
	require.NoError(t, err)
	require.Equal(t, `{"when":{"$date":"1970-01-01T00:00:01Z"}}`+"\n", out)

	conf := config.New()
	conf.Set("Clone.extendedJSON", true)
	out, err = run(t, conf, in, "clone")
	require.NoError(t, err)
	require.Equal(t, `{"when":{"$date":"1970-01-01T00:00:01Z"}}`+"\n", out)
}

func TestClone_Pretty(t *testing.T) {
	out, err := run(t, config.New(), `{"a":[1]}`, "clone", "--pretty")
	require.NoError(t, err)
	require.Contains(t, out, "\n  ")
	require.JSONEq(t, `{"a":[1]}`, out)
}

func TestClone_InvalidJSON(t *testing.T) {
	_, err := run(t, config.New(), `{"a":`, "clone")
	require.ErrorContains(t, err, "parse stdin")

	for _, cmd := range []string{"clone", "verify", "fingerprint", "canon"} {
		out, err := run(t, config.New(), `{"a":[1,01]}`, cmd)
		require.ErrorContains(t, err, `invalid number "01"`, cmd)
		require.Empty(t, out, cmd)
	}
}

func TestVerify(t *testing.T) {
	out, err := run(t, config.New(), `{"a":[1,{"b":"c"}]}`, "verify")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(out, "ok "))
	require.Len(t, strings.TrimSpace(out), len("ok ")+64)
}

func TestFingerprint_IgnoresKeyOrder(t *testing.T) {
	first, err := run(t, config.New(), `{"a":1,"b":[true]}`, "fingerprint")
	require.NoError(t, err)
	second, err := run(t, config.New(), `{"b":[true],"a":1}`, "fingerprint")
	require.NoError(t, err)
	require.Equal(t, first, second)

	third, err := run(t, config.New(), `{"a":2,"b":[true]}`, "fingerprint")
	require.NoError(t, err)
	require.NotEqual(t, first, third)
}

func TestCanon(t *testing.T) {
	out, err := run(t, config.New(), `{"b":1,"a":[true,null]}`, "canon")
	require.NoError(t, err)
	require.Equal(t, "{a=[t ∅] b=1}\n", out)
}

func TestVersion(t *testing.T) {
	out, err := run(t, config.New(), "", "version")
	require.NoError(t, err)
	require.Equal(t, "replica "+libVersion+"\n", out)
}
