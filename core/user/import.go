package user

import (
	"context"
	"encoding/csv"
	"io"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/edulane/lms/core"
)

// columns that can hold the login ID, by priority
var idColumns = []string{"rollno", "roll no", "empid", "id"}

type importRow map[string]string

func (r importRow) get(cols ...string) string {
	for _, col := range cols {
		if v := core.CleanString(r[col]); v != "" {
			return v
		}
	}
	return ""
}

// Import creates a user with the given role for every row of a CSV document.
// Headers are case-insensitive. The login ID is read from the first non-empty column of
// "rollno", "roll no", "empid" or "id"; rows without one are skipped.
// "name" defaults to DefaultName, "branch" to DefaultBranch, "password" to the default password.
// Rows are created independently: a rejected row does not stop the import.
func (svc *Service) Import(ctx context.Context, role string, r io.Reader) (ImportReport, error) {
	var report ImportReport

	role = core.CleanString(role, true /* lower */)
	if role != RoleStudent && role != RoleFaculty {
		return report, core.NewFieldError("role", ErrInvalidRole)
	}

	rdr := csv.NewReader(r)
	rdr.FieldsPerRecord = -1
	rdr.TrimLeadingSpace = true

	header, err := rdr.Read()
	if err != nil {
		if err == io.EOF {
			return report, core.NewFieldError("file", errors.New("file is empty"))
		}
		return report, core.NewFieldError("file", errors.Wrap(err, "invalid CSV"))
	}
	for i, col := range header {
		header[i] = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(col, "\ufeff")))
	}

	for rowNum := 1; ; rowNum++ {
		if err = ctx.Err(); err != nil {
			return report, err
		}

		record, err := rdr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return report, core.NewFieldError("file", errors.Wrapf(err, "invalid CSV at row %d", rowNum))
		}

		row := make(importRow, len(header))
		for i, col := range header {
			if i < len(record) {
				row[col] = record[i]
			}
		}

		userID := row.get(idColumns...)
		if userID == "" {
			report.Skipped++
			continue
		}
		nu := NewUser{
			UserID:   userID,
			Name:     core.StringOr(row.get("name"), DefaultName),
			Email:    row.get("email"),
			Role:     role,
			Branch:   core.StringOr(row.get("branch"), DefaultBranch),
			Password: row.get("password"),
		}

		usr, err := svc.Create(ctx, nu)
		if err != nil {
			fields, ok := svc.rowErrors(err)
			if !ok {
				return report, errors.Wrapf(err, "importing row %d", rowNum)
			}
			report.Failed++
			report.Errors = append(report.Errors, RowError{Row: rowNum, UserID: userID, Errors: fields})
			continue
		}
		report.Created++
		report.Users = append(report.Users, usr)
	}
	return report, nil
}

// rowErrors flattens a rejection of a row into {field: message}.
// It returns false when err is not a rejection of the row's data.
func (svc *Service) rowErrors(err error) (map[string]string, bool) {
	var vErrs validator.ValidationErrors
	if errors.As(err, &vErrs) {
		fields := make(map[string]string, len(vErrs))
		for _, fe := range vErrs {
			fields[fe.Field()] = fe.Translate(svc.translator)
		}
		return fields, true
	}
	if vErr, ok := core.AsValidationError(err); ok {
		fields := make(map[string]string, len(vErr.Fields))
		for _, fe := range vErr.Fields {
			fields[fe.Field] = fe.Error
		}
		if len(fields) == 0 {
			fields["_"] = vErr.Error()
		}
		return fields, true
	}
	return nil, false
}
