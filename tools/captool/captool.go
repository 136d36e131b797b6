package main

import (
	"fmt"
	"os"
	"time"

	"github.com/alpacahq/gocaptable/capreg"
	"github.com/alpacahq/gocaptable/gberrors"
	"github.com/alpacahq/gocaptable/mailer"
	"github.com/alpacahq/gocaptable/models"
	"github.com/alpacahq/gocaptable/models/enum"
	"github.com/alpacahq/gocaptable/money"
	"github.com/alpacahq/gocaptable/s3man"
	"github.com/alpacahq/gocaptable/service/conversion"
	"github.com/alpacahq/gocaptable/service/dilution"
	"github.com/alpacahq/gocaptable/service/report"
	"github.com/alpacahq/gocaptable/service/waterfall"
	"github.com/alpacahq/gocaptable/utils/clock"
	"github.com/alpacahq/gocaptable/utils/date"
	"github.com/alpacahq/gocaptable/utils/db"
	"github.com/alpacahq/gocaptable/utils/initializer"
	convworker "github.com/alpacahq/gocaptable/workers/conversion"
	"github.com/shopspring/decimal"
	cli "gopkg.in/urfave/cli.v1"
)

func main() {
	clock.Set()
	initializer.Initialize()

	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	app := cli.NewApp()
	app.Name = "captool"
	app.Usage = "Run cap table scenarios and conversions"
	app.Commands = []cli.Command{
		{
			Name:      "waterfall",
			Usage:     "Distribute exit proceeds over a cap table",
			ArgsUsage: "<cap_table.yml>",
			Flags: []cli.Flag{
				cli.StringFlag{Name: "proceeds,p"},
				cli.StringFlag{Name: "type,t", Value: string(enum.Acquisition)},
				cli.StringFlag{Name: "startup,s", Usage: "use the startup's latest cap table instead of a file"},
				cli.BoolFlag{Name: "record", Usage: "persist the distributions and mail them to finance"},
				cli.BoolFlag{Name: "upload", Usage: "archive the report to S3"},
			},
			Action: runWaterfall,
		},
		{
			Name:      "dilution",
			Usage:     "Project the dilution of one or more rounds",
			ArgsUsage: "<cap_table.yml> <scenarios.yml>",
			Flags: []cli.Flag{
				cli.BoolFlag{Name: "upload", Usage: "archive the reports to S3"},
			},
			Action: runDilution,
		},
		{
			Name:  "convert",
			Usage: "Convert a security in a round",
			Flags: []cli.Flag{
				cli.StringFlag{Name: "security"},
				cli.StringFlag{Name: "round"},
				cli.BoolFlag{Name: "force", Usage: "convert even without auto conversion"},
			},
			Action: runConvert,
		},
		{
			Name:  "sweep",
			Usage: "Evaluate every active security against recent rounds",
			Flags: []cli.Flag{
				cli.StringFlag{Name: "as-of", Usage: "YYYY-MM-DD, defaults to now"},
			},
			Action: runSweep,
		},
		{
			Name:  "matured",
			Usage: "List active notes past their maturity date",
			Flags: []cli.Flag{
				cli.StringFlag{Name: "as-of", Usage: "YYYY-MM-DD, defaults to today"},
				cli.IntFlag{Name: "limit", Value: 100},
			},
			Action: runMatured,
		},
		{
			Name:  "dissolve",
			Usage: "Cancel an active security without converting it",
			Flags: []cli.Flag{
				cli.StringFlag{Name: "security"},
			},
			Action: runSettle,
		},
		{
			Name:  "repay",
			Usage: "Mark an active note as repaid in cash",
			Flags: []cli.Flag{
				cli.StringFlag{Name: "security"},
			},
			Action: runSettle,
		},
		{
			Name:  "distribution",
			Usage: "Advance an exit distribution to processing or completed",
			Flags: []cli.Flag{
				cli.StringFlag{Name: "id"},
				cli.BoolFlag{Name: "complete", Usage: "complete a processing distribution"},
			},
			Action: runDistribution,
		},
	}

	return app
}

func exitErr(err error) error {
	return cli.NewExitError(gberrors.Format(err), 1)
}

func output(c *cli.Context, r *report.Report) error {
	if _, err := os.Stdout.Write(r.Data); err != nil {
		return err
	}

	if !c.Bool("upload") {
		return nil
	}

	s3, err := s3man.New()
	if err != nil {
		return err
	}

	if err = report.Archive(s3, r); err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "uploaded %v\n", s3.Key(r.Path))

	return nil
}

func runWaterfall(c *cli.Context) error {
	proceeds, err := decimal.NewFromString(c.String("proceeds"))
	if err != nil {
		return cli.NewExitError("invalid --proceeds", 1)
	}

	exit := &models.ExitEvent{
		StartupID:    c.String("startup"),
		ExitProceeds: proceeds,
		ExitType:     enum.ExitType(c.String("type")),
		ExitDate:     date.DateOf(clock.Now()),
	}

	if exit.StartupID == "" {
		if len(c.Args()) < 1 {
			cli.ShowCommandHelpAndExit(c, "waterfall", 1)
		}

		snap, err := loadCapTable(c.Args().Get(0))
		if err != nil {
			return exitErr(err)
		}

		res, err := waterfall.Run(snap, proceeds)
		if err != nil {
			return exitErr(err)
		}

		r, err := report.Waterfall(snap.StartupID, res)
		if err != nil {
			return exitErr(err)
		}

		return output(c, r)
	}

	if err = exit.Validate(); err != nil {
		return exitErr(gberrors.InvalidInput.WithError(err))
	}

	srv := capreg.Services.Waterfall().WithTx(db.DB())

	if !c.Bool("record") {
		res, err := srv.Calculate(exit)
		if err != nil {
			return exitErr(err)
		}

		r, err := report.Waterfall(exit.StartupID, res)
		if err != nil {
			return exitErr(err)
		}

		return output(c, r)
	}

	tx := db.Serializable()

	exit, err = capreg.Services.Waterfall().WithTx(tx).Record(exit)
	if err != nil {
		tx.Rollback()
		return exitErr(err)
	}

	if err = tx.Commit().Error; err != nil {
		return exitErr(gberrors.InternalServerError.WithError(err))
	}

	r, err := report.Distributions(exit)
	if err != nil {
		return exitErr(err)
	}

	if err = mailer.SendDistributionReport(exit, r.Name(), r.Data); err != nil {
		return exitErr(err)
	}

	return output(c, r)
}

func runDilution(c *cli.Context) error {
	if len(c.Args()) < 2 {
		cli.ShowCommandHelpAndExit(c, "dilution", 1)
	}

	snap, err := loadCapTable(c.Args().Get(0))
	if err != nil {
		return exitErr(err)
	}

	scenarios, err := loadScenarios(c.Args().Get(1))
	if err != nil {
		return exitErr(err)
	}

	projections, err := dilution.ProjectScenarios(snap, scenarios)
	if err != nil {
		return exitErr(err)
	}

	for _, p := range projections {
		fmt.Fprintf(os.Stderr,
			"$%s at $%s pre-money: %s new shares at $%s, %s%% to the new investors\n",
			money.Format(p.Investment),
			money.Format(p.PreMoney),
			money.FormatShares(p.NewShares),
			p.PricePerShare.StringFixed(4),
			p.NewInvestorOwnership.StringFixed(2))

		r, err := report.Dilution(snap.StartupID, p)
		if err != nil {
			return exitErr(err)
		}

		if err = output(c, r); err != nil {
			return err
		}
	}

	return nil
}

func runConvert(c *cli.Context) error {
	if c.String("security") == "" || c.String("round") == "" {
		cli.ShowCommandHelpAndExit(c, "convert", 1)
	}

	start := time.Now()

	out, err := capreg.Services.Conversion().Convert(conversion.Request{
		SecurityID: c.String("security"),
		RoundID:    c.String("round"),
		Force:      c.Bool("force"),
	})
	if err != nil {
		return exitErr(err)
	}

	switch {
	case out.Skipped:
		fmt.Printf("already evaluated: %v %v\n", out.State, out.Reason)
	case out.Conversion != nil:
		fmt.Printf(
			"converted %s into %s %s shares at $%s (cap table v%d) in %v\n",
			money.Format(out.Conversion.TotalAmount()),
			money.FormatShares(out.Conversion.Shares),
			out.Conversion.ShareClass,
			out.Conversion.ConversionPrice.String(),
			out.Snapshot.Version,
			time.Now().Sub(start))
	default:
		fmt.Printf("%v %v\n", out.State, out.Reason)
	}

	return nil
}

func runSweep(c *cli.Context) error {
	asOf := clock.Now()

	if v := c.String("as-of"); v != "" {
		d, err := date.ParseDate(v)
		if err != nil {
			return cli.NewExitError("invalid --as-of", 1)
		}
		asOf = d.In(time.UTC).AddDate(0, 0, 1)
	}

	res, err := convworker.Run(asOf)
	if err != nil {
		return exitErr(err)
	}

	fmt.Printf(
		"rounds: %d processed: %d converted: %d eligible: %d disqualified: %d skipped: %d errors: %d\n",
		res.Rounds, res.Processed, res.Converted, res.Eligible, res.Disqualified, res.Skipped, len(res.Errors))

	for _, e := range res.Errors {
		fmt.Fprintln(os.Stderr, e)
	}

	return nil
}

func runMatured(c *cli.Context) error {
	asOf := date.DateOf(clock.Now())

	if v := c.String("as-of"); v != "" {
		d, err := date.ParseDate(v)
		if err != nil {
			return cli.NewExitError("invalid --as-of", 1)
		}
		asOf = d
	}

	secs, err := capreg.Services.Security().WithTx(db.DB()).ListMatured(asOf, c.Int("limit"))
	if err != nil {
		return exitErr(err)
	}

	for _, sec := range secs {
		matured := ""
		if sec.Note != nil {
			matured = sec.Note.MaturityDate.String()
		}
		fmt.Printf("%s %s %s $%s matured %s\n",
			sec.ID, sec.StartupID, sec.Kind, money.Format(sec.PrincipalAmount), matured)
	}

	return nil
}

func runSettle(c *cli.Context) error {
	id := c.String("security")
	if id == "" {
		cli.ShowCommandHelpAndExit(c, c.Command.Name, 1)
	}

	tx := db.Begin()
	srv := capreg.Services.Security().WithTx(tx)

	settle := srv.Dissolve
	if c.Command.Name == "repay" {
		settle = srv.Repay
	}

	if err := settle(id); err != nil {
		tx.Rollback()
		return exitErr(err)
	}

	if err := tx.Commit().Error; err != nil {
		return exitErr(gberrors.InternalServerError.WithError(err))
	}

	sec, err := capreg.Services.Security().WithTx(db.DB()).GetByID(id)
	if err != nil {
		return exitErr(err)
	}

	fmt.Printf("%s %s\n", sec.ID, sec.Status)

	return nil
}

func runDistribution(c *cli.Context) error {
	id := c.String("id")
	if id == "" {
		cli.ShowCommandHelpAndExit(c, "distribution", 1)
	}

	srv := capreg.Services.Waterfall().WithTx(db.DB())

	advance := srv.Process
	if c.Bool("complete") {
		advance = srv.Complete
	}

	d, err := advance(id)
	if err != nil {
		return exitErr(err)
	}

	fmt.Printf("%s %s $%s %s\n", d.ID, d.Name, money.Format(d.Amount), d.Status)

	return nil
}
