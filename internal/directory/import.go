package directory

import (
    "bytes"
    "encoding/csv"
    "errors"
    "fmt"
    "io"
    "strconv"
    "strings"

    "github.com/larslemos/ninho-do-amor-sub000/internal/model"
    "github.com/larslemos/ninho-do-amor-sub000/internal/notify"
)

// MaxImportBytes bounds the size of an uploaded guest file.
const MaxImportBytes = 2 << 20

var (
    ErrEmptyFile     = errors.New("arquivo vazio")
    ErrMissingHeader = errors.New("cabeçalho sem colunas nome e telefone")
    ErrFileTooLarge  = errors.New("arquivo maior que 2 MB")
)

// ImportRow is one accepted line of an uploaded guest file.
type ImportRow struct {
    Line       int
    Name       string
    Phone      string
    Email      string
    Companions int
}

// Skip records why a line was not imported.
type Skip struct {
    Line   int    `json:"line"`
    Reason string `json:"reason"`
}

var headerAliases = map[string]string{
    "nome":          "name",
    "name":          "name",
    "telefone":      "phone",
    "phone":         "phone",
    "telephone":     "phone",
    "celular":       "phone",
    "email":         "email",
    "e-mail":        "email",
    "companions":    "companions",
    "acompanhantes": "companions",
}

// ParseCSV reads a comma or semicolon separated guest file.  The first line
// is the header; columns are located by name so their order does not
// matter.  Invalid lines are reported in the skip list rather than failing
// the whole file.
func ParseCSV(r io.Reader) ([]ImportRow, []Skip, error) {
    data, err := io.ReadAll(io.LimitReader(r, MaxImportBytes+1))
    if err != nil {
        return nil, nil, err
    }
    if len(data) > MaxImportBytes {
        return nil, nil, ErrFileTooLarge
    }
    data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
    if len(bytes.TrimSpace(data)) == 0 {
        return nil, nil, ErrEmptyFile
    }

    cr := csv.NewReader(bytes.NewReader(data))
    cr.Comma = detectDelimiter(data)
    cr.FieldsPerRecord = -1
    cr.TrimLeadingSpace = true
    cr.LazyQuotes = true

    header, err := cr.Read()
    if err != nil {
        return nil, nil, fmt.Errorf("read header: %w", err)
    }
    cols := map[string]int{}
    for i, h := range header {
        if key, ok := headerAliases[strings.ToLower(strings.TrimSpace(h))]; ok {
            if _, dup := cols[key]; !dup {
                cols[key] = i
            }
        }
    }
    if _, ok := cols["name"]; !ok {
        return nil, nil, ErrMissingHeader
    }
    if _, ok := cols["phone"]; !ok {
        return nil, nil, ErrMissingHeader
    }

    var rows []ImportRow
    var skipped []Skip
    for {
        rec, err := cr.Read()
        if err == io.EOF {
            break
        }
        if err != nil {
            var perr *csv.ParseError
            if errors.As(err, &perr) {
                skipped = append(skipped, Skip{Line: perr.StartLine, Reason: "linha ilegível"})
                continue
            }
            return nil, nil, err
        }
        line, _ := cr.FieldPos(0)
        if blank(rec) {
            continue
        }
        row := ImportRow{
            Line:  line,
            Name:  field(rec, cols, "name"),
            Phone: field(rec, cols, "phone"),
            Email: strings.ToLower(field(rec, cols, "email")),
        }
        if c := field(rec, cols, "companions"); c != "" {
            n, err := strconv.Atoi(c)
            if err != nil {
                n = -1
            }
            row.Companions = n
        }
        if err := CheckGuest(row.Name, row.Phone, row.Email, row.Companions); err != nil {
            skipped = append(skipped, Skip{Line: line, Reason: err.Error()})
            continue
        }
        rows = append(rows, row)
    }
    return rows, skipped, nil
}

// Dedupe drops rows whose phone or email already exists among the existing
// guests or on an earlier line of the same file.
func Dedupe(rows []ImportRow, existing []model.Guest) ([]ImportRow, []Skip) {
    phones := map[string]bool{}
    emails := map[string]bool{}
    for _, g := range existing {
        if p := model.StrVal(g.Phone); p != "" {
            phones[notify.FormatPhone(p)] = true
        }
        if e := model.StrVal(g.Email); e != "" {
            emails[strings.ToLower(e)] = true
        }
    }
    kept := make([]ImportRow, 0, len(rows))
    var skipped []Skip
    for _, r := range rows {
        p := notify.FormatPhone(r.Phone)
        if phones[p] {
            skipped = append(skipped, Skip{Line: r.Line, Reason: "telefone duplicado"})
            continue
        }
        if r.Email != "" && emails[r.Email] {
            skipped = append(skipped, Skip{Line: r.Line, Reason: "email duplicado"})
            continue
        }
        phones[p] = true
        if r.Email != "" {
            emails[r.Email] = true
        }
        kept = append(kept, r)
    }
    return kept, skipped
}

func detectDelimiter(data []byte) rune {
    first := data
    if i := bytes.IndexByte(data, '\n'); i >= 0 {
        first = data[:i]
    }
    if bytes.Count(first, []byte(";")) > bytes.Count(first, []byte(",")) {
        return ';'
    }
    return ','
}

func field(rec []string, cols map[string]int, key string) string {
    i, ok := cols[key]
    if !ok || i >= len(rec) {
        return ""
    }
    return strings.TrimSpace(rec[i])
}

func blank(rec []string) bool {
    for _, f := range rec {
        if strings.TrimSpace(f) != "" {
            return false
        }
    }
    return true
}
