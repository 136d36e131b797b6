package mailer

import (
	"fmt"

	"github.com/alpacahq/gocaptable/external/mailgun"
	"github.com/alpacahq/gocaptable/mailer/templates"
	"github.com/alpacahq/gocaptable/mailer/templates/layouts"
	"github.com/alpacahq/gocaptable/mailer/templates/partials"
	"github.com/alpacahq/gocaptable/models"
	"github.com/alpacahq/gocaptable/models/enum"
	"github.com/alpacahq/gocaptable/money"
	"github.com/alpacahq/gocaptable/utils"
	"github.com/alpacahq/gocaptable/utils/env"
	"github.com/alpacahq/gocaptable/utils/log"
)

var (
	devSender = "Dev Test <devtest@example.com>"
)

type MailType string

const (
	SafeConverted MailType = "safe_converted"
	NoteConverted MailType = "note_converted"
	// internal
	DistributionReport MailType = "distribution_report"
)

func getSender() string {
	if utils.Prod() {
		return env.GetVar("MAIL_SENDER")
	}
	return devSender
}

func getRecipient() string {
	return env.GetVar("CONVERSION_NOTIFY_EMAIL")
}

// ShortID keeps the first block of a uuid for subject lines.
// 3f2c9a1e-... -> 3f2c9a1e
func ShortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

type conversionData struct {
	Investor   string
	Round      string
	Principal  string
	Interest   string
	Price      string
	Shares     string
	ShareClass string
	Total      string
}

func dataOf(conv *models.Conversion) conversionData {
	return conversionData{
		Investor:   ShortID(conv.InvestorID),
		Round:      ShortID(conv.RoundID),
		Principal:  money.Format(conv.Principal),
		Interest:   money.Format(conv.AccruedInterest),
		Price:      money.Format(conv.ConversionPrice),
		Shares:     money.FormatShares(conv.Shares),
		ShareClass: conv.ShareClass,
		Total:      money.Format(conv.TotalAmount()),
	}
}

// SendConversion is the conversion service's notifier, picking the
// mail that matches the security kind.
func SendConversion(sec *models.ConvertibleSecurity, conv *models.Conversion) error {
	switch sec.Kind {
	case enum.Safe:
		return SendSafeConverted(conv)
	case enum.Note:
		return SendNoteConverted(conv)
	default:
		return fmt.Errorf("no conversion mail for kind %q", sec.Kind)
	}
}

// SendSafeConverted tells the cap table administrator that a SAFE
// converted, with the shares, conversion price and total amount.
func SendSafeConverted(conv *models.Conversion) error {
	return sendConversion(SafeConverted, partials.SafeConverted, "SAFE", conv)
}

// SendNoteConverted is SendSafeConverted for convertible notes, also
// listing the accrued interest that converted.
func SendNoteConverted(conv *models.Conversion) error {
	return sendConversion(NoteConverted, partials.NoteConverted, "Convertible Note", conv)
}

func sendConversion(kind MailType, partial partials.Partial, label string, conv *models.Conversion) error {
	html, err := templates.ExecuteTemplate(layouts.Base(), partial, dataOf(conv))
	if err != nil {
		return err
	}

	msg := mailgun.Email{
		Sender:    getSender(),
		Subject:   fmt.Sprintf("%s %s Converted", label, ShortID(conv.SecurityID)),
		HTML:      html,
		Recipient: getRecipient(),
	}

	if err = mailgun.Send(msg); err != nil {
		log.Error(
			"mailer send error",
			"type", kind,
			"security", conv.SecurityID,
			"error", err)
	}

	return err
}

// SendDistributionReport mails the distribution CSV of a recorded
// exit to finance.
func SendDistributionReport(exit *models.ExitEvent, fileName string, file []byte) (err error) {
	msg := mailgun.Email{
		Sender:    getSender(),
		Subject:   fmt.Sprintf("%s Exit Distributions (%s)", exit.ExitType, exit.ExitDate),
		Recipient: env.GetVar("FINANCE_EMAIL"),
		PlainText: fmt.Sprintf(
			"Please see the attached distributions of $%s in exit proceeds.",
			money.Format(exit.ExitProceeds)),
		Attachment: &mailgun.Attachment{
			Name: fileName,
			Data: file,
		},
	}

	if err = mailgun.Send(msg); err != nil {
		log.Error(
			"mailer send error",
			"type", DistributionReport,
			"exit", exit.ID,
			"error", err)
	}

	return
}
