package main

import (
	"io/ioutil"

	"github.com/alpacahq/gocaptable/models"
	"github.com/alpacahq/gocaptable/service/captable"
	"github.com/alpacahq/gocaptable/service/dilution"
	"github.com/pkg/errors"
	yaml "gopkg.in/yaml.v2"
)

// loadCapTable reads a cap table in the same YAML layout the backup
// worker archives, recomputing its derived values.
func loadCapTable(path string) (*models.CapTableSnapshot, error) {
	buf, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, err
	}

	snap := &models.CapTableSnapshot{}
	if err = yaml.UnmarshalStrict(buf, snap); err != nil {
		return nil, errors.Wrapf(err, "parse cap table %v", path)
	}

	if err = captable.Normalize(snap); err != nil {
		return nil, err
	}

	return snap, nil
}

type scenarioFile struct {
	Scenarios []dilution.Scenario `yaml:"scenarios"`
}

func loadScenarios(path string) ([]dilution.Scenario, error) {
	buf, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, err
	}

	f := scenarioFile{}
	if err = yaml.UnmarshalStrict(buf, &f); err != nil {
		return nil, errors.Wrapf(err, "parse scenarios %v", path)
	}

	if len(f.Scenarios) == 0 {
		return nil, errors.Errorf("no scenarios in %v", path)
	}

	return f.Scenarios, nil
}
