package main

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/alpacahq/gocaptable/dbtest"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	yaml "gopkg.in/yaml.v2"
)

func writeFile(t *testing.T, dir, name string, data []byte) string {
	path := filepath.Join(dir, name)
	require.Nil(t, ioutil.WriteFile(path, data, 0644))
	return path
}

func TestLoadCapTable(t *testing.T) {
	dir, err := ioutil.TempDir("", "captool")
	require.Nil(t, err)
	defer os.RemoveAll(dir)

	// round trips the layout the backup worker writes
	buf, err := yaml.Marshal(dbtest.CapTable("startup-1"))
	require.Nil(t, err)

	snap, err := loadCapTable(writeFile(t, dir, "cap_table.yml", buf))
	require.Nil(t, err)
	assert.Equal(t, "startup-1", snap.StartupID)
	assert.Len(t, snap.ShareClasses, 2)
	assert.True(t, snap.FullyDilutedShares.Equal(decimal.New(2000000, 0)))

	founder := snap.Stakeholder("founder-a")
	require.NotNil(t, founder)
	assert.True(t, founder.TotalShares.Equal(decimal.New(900000, 0)))

	_, err = loadCapTable(writeFile(t, dir, "unknown.yml", []byte("startup_id: x\nshareclasses: []\n")))
	assert.NotNil(t, err)

	// stakeholders holding more than the class has outstanding
	broken := []byte(`
startup_id: startup-2
share_classes:
- name: Common
  type: COMMON
  shares_authorized: "1000"
  shares_issued: "100"
  shares_outstanding: "100"
stakeholders:
- holder_id: founder
  type: FOUNDER
  holdings:
  - share_class: Common
    shares: "200"
`)
	_, err = loadCapTable(writeFile(t, dir, "broken.yml", broken))
	assert.NotNil(t, err)
}

func TestLoadScenarios(t *testing.T) {
	dir, err := ioutil.TempDir("", "captool")
	require.Nil(t, err)
	defer os.RemoveAll(dir)

	scenarios, err := loadScenarios(writeFile(t, dir, "scenarios.yml", []byte(`
scenarios:
- investment: "1000000"
  pre_money: "4000000"
- investment: "2500000"
  pre_money: "10000000"
`)))
	require.Nil(t, err)
	require.Len(t, scenarios, 2)
	assert.True(t, scenarios[0].Investment.Equal(decimal.New(1000000, 0)))
	assert.True(t, scenarios[1].PreMoney.Equal(decimal.New(10000000, 0)))

	_, err = loadScenarios(writeFile(t, dir, "empty.yml", []byte("scenarios: []\n")))
	assert.NotNil(t, err)

	_, err = loadScenarios(filepath.Join(dir, "missing.yml"))
	assert.NotNil(t, err)
}
