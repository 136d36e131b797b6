package report

import (
	"bytes"
	"fmt"
	"io"

	"github.com/alpacahq/gocaptable/gberrors"
	"github.com/alpacahq/gocaptable/models"
	"github.com/alpacahq/gocaptable/service/dilution"
	"github.com/alpacahq/gocaptable/service/waterfall"
	"github.com/alpacahq/gocaptable/utils/clock"
	"github.com/gocarina/gocsv"
)

const dateFormat = "2006-01-02"

// Report is a rendered CSV and the path it is archived under.
type Report struct {
	Path string
	Data []byte
}

// Name is the file name part of Path, used for mail attachments.
func (r *Report) Name() string {
	for i := len(r.Path) - 1; i >= 0; i-- {
		if r.Path[i] == '/' {
			return r.Path[i+1:]
		}
	}
	return r.Path
}

// Uploader stores a report, e.g. s3man.Manager.
type Uploader interface {
	Upload(file io.ReadSeeker, path string) error
}

func render(path string, records interface{}) (*Report, error) {
	buf, err := gocsv.MarshalBytes(records)
	if err != nil {
		return nil, gberrors.InternalServerError.WithError(err)
	}
	return &Report{Path: path, Data: buf}, nil
}

// Distributions renders the recorded distributions of an exit.
func Distributions(exit *models.ExitEvent) (*Report, error) {
	return render(
		fmt.Sprintf("/exits/%s/%s_distributions.csv", exit.StartupID, exit.ID),
		exit.Distributions)
}

// Conversions renders a startup's conversion audit records.
func Conversions(startupID string, convs []models.Conversion) (*Report, error) {
	return render(
		fmt.Sprintf("/conversions/%s/%s.csv", startupID, clock.Now().Format(dateFormat)),
		convs)
}

// Waterfall renders the per holder payouts of an exit scenario that
// was calculated but not recorded.
func Waterfall(startupID string, res *waterfall.Result) (*Report, error) {
	return render(
		fmt.Sprintf("/waterfalls/%s/%s_%s.csv", startupID, clock.Now().Format(dateFormat), res.Proceeds.String()),
		res.Payouts)
}

// Dilution renders the per stakeholder effect of a projected round.
func Dilution(startupID string, p *dilution.Projection) (*Report, error) {
	return render(
		fmt.Sprintf("/dilution/%s/%s_%s_%s.csv",
			startupID, clock.Now().Format(dateFormat), p.Investment.String(), p.PreMoney.String()),
		p.Stakeholders)
}

// Archive uploads r to its path.
func Archive(u Uploader, r *Report) error {
	if err := u.Upload(bytes.NewReader(r.Data), r.Path); err != nil {
		return gberrors.InternalServerError.WithError(err)
	}
	return nil
}
