package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/isow/backend/internal/application/directory"
	"github.com/isow/backend/internal/application/i18n"
	"github.com/isow/backend/internal/application/validation"
	"github.com/isow/backend/internal/domain/record"
	"github.com/isow/backend/internal/domain/shared"
	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

// Seed is the YAML document read by import and written by export
type Seed struct {
	Companies []SeedCompany `yaml:"companies,omitempty"`
	Users     []SeedUser    `yaml:"users,omitempty"`
}

// SeedCompany is one organization entry. ID is informational; imports
// always create new records.
type SeedCompany struct {
	ID    string `yaml:"id,omitempty"`
	Name  string `yaml:"name"`
	Email string `yaml:"email"`
	CNPJ  string `yaml:"cnpj"`
}

// SeedUser is one individual entry
type SeedUser struct {
	ID    string `yaml:"id,omitempty"`
	Name  string `yaml:"name"`
	Email string `yaml:"email"`
	CPF   string `yaml:"cpf"`
	CNPJ  string `yaml:"cnpj"`
}

// ImportReport counts what an import did
type ImportReport struct {
	Companies int
	Users     int
	Rejected  []string
}

func newRecordsCmd(be func() backend) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "records",
		Short: "Import and export directory records",
	}
	cmd.AddCommand(newRecordsImportCmd(be), newRecordsExportCmd(be))
	return cmd
}

func newRecordsImportCmd(be func() backend) *cobra.Command {
	var dryRun bool
	var lang string
	cmd := &cobra.Command{
		Use:   "import FILE",
		Short: "Create companies and users from a YAML seed file (- reads stdin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			seed, err := readSeed(cmd.InOrStdin(), args[0])
			if err != nil {
				return err
			}
			tag := i18n.Parse(lang)
			if dryRun {
				report := validateSeed(seed, tag)
				printReport(cmd, "valid", report)
				return rejectedError(report)
			}
			store, err := be().Records(cmd.Context())
			if err != nil {
				return err
			}
			report, err := importSeed(i18n.WithLanguage(cmd.Context(), tag), store, seed)
			printReport(cmd, "imported", report)
			if err != nil {
				return err
			}
			return rejectedError(report)
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Validate the file without writing")
	cmd.Flags().StringVar(&lang, "lang", "en", "Language of the rejection messages (en, pt-BR)")
	return cmd
}

func newRecordsExportCmd(be func() backend) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write every company and user as a YAML seed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := be().Records(cmd.Context())
			if err != nil {
				return err
			}
			seed, err := exportSeed(cmd.Context(), store)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if output != "" && output != "-" {
				f, err := os.Create(output)
				if err != nil {
					return err
				}
				defer f.Close()
				w = f
			}
			enc := yaml.NewEncoder(w)
			enc.SetIndent(2)
			if err := enc.Encode(seed); err != nil {
				return err
			}
			return enc.Close()
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file, stdout when empty")
	return cmd
}

func readSeed(stdin io.Reader, path string) (*Seed, error) {
	r := stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}
	var seed Seed
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&seed); err != nil && err != io.EOF {
		return nil, fmt.Errorf("parse seed: %w", err)
	}
	return &seed, nil
}

func (c SeedCompany) input() validation.OrganizationInput {
	return validation.OrganizationInput{Name: c.Name, Email: c.Email, CNPJ: c.CNPJ}
}

func (u SeedUser) input() validation.IndividualInput {
	return validation.IndividualInput{Name: u.Name, Email: u.Email, CPF: u.CPF, CNPJ: u.CNPJ}
}

// importSeed creates every valid entry through the directory services.
// Invalid entries are reported and skipped; a store failure stops the import.
func importSeed(ctx context.Context, store record.Store, seed *Seed) (ImportReport, error) {
	var report ImportReport
	orgs := directory.NewOrganizationService(store, nil, nil)
	people := directory.NewIndividualService(store, nil, nil)

	for i, c := range seed.Companies {
		if _, err := orgs.Create(ctx, c.input()); err != nil {
			if !errors.Is(err, shared.ErrValidation) {
				return report, err
			}
			report.Rejected = append(report.Rejected, fmt.Sprintf("companies[%d]: %v", i, err))
			continue
		}
		report.Companies++
	}
	for i, u := range seed.Users {
		if _, err := people.Create(ctx, u.input()); err != nil {
			if !errors.Is(err, shared.ErrValidation) {
				return report, err
			}
			report.Rejected = append(report.Rejected, fmt.Sprintf("users[%d]: %v", i, err))
			continue
		}
		report.Users++
	}
	return report, nil
}

func validateSeed(seed *Seed, lang language.Tag) ImportReport {
	var report ImportReport
	for i, c := range seed.Companies {
		in := c.input()
		if err := validation.Struct(lang, &in); err != nil {
			report.Rejected = append(report.Rejected, fmt.Sprintf("companies[%d]: %v", i, err))
			continue
		}
		report.Companies++
	}
	for i, u := range seed.Users {
		in := u.input()
		if err := validation.Struct(lang, &in); err != nil {
			report.Rejected = append(report.Rejected, fmt.Sprintf("users[%d]: %v", i, err))
			continue
		}
		report.Users++
	}
	return report
}

func exportSeed(ctx context.Context, store record.Store) (*Seed, error) {
	orgs, err := directory.NewOrganizationService(store, nil, nil).List(ctx)
	if err != nil {
		return nil, err
	}
	people, err := directory.NewIndividualService(store, nil, nil).List(ctx)
	if err != nil {
		return nil, err
	}

	seed := &Seed{}
	for _, o := range orgs {
		seed.Companies = append(seed.Companies, SeedCompany{ID: o.ID, Name: o.Name, Email: o.Email, CNPJ: o.CNPJ})
	}
	for _, p := range people {
		seed.Users = append(seed.Users, SeedUser{ID: p.ID, Name: p.Name, Email: p.Email, CPF: p.CPF, CNPJ: p.CNPJ})
	}
	return seed, nil
}

func printReport(cmd *cobra.Command, verb string, r ImportReport) {
	cmd.Printf("%s %d companies, %d users\n", verb, r.Companies, r.Users)
	for _, line := range r.Rejected {
		cmd.Printf("rejected %s\n", line)
	}
}

func rejectedError(r ImportReport) error {
	if len(r.Rejected) == 0 {
		return nil
	}
	return exitError{code: 4, err: fmt.Errorf("%d entries rejected", len(r.Rejected))}
}
