package directory

import (
    "encoding/csv"
    "io"

    "github.com/larslemos/ninho-do-amor-sub000/internal/model"
)

// ExportHeader is the first row of every export.
var ExportHeader = []string{"Nome", "Telefone", "Email", "Status", "Mesa", "URL Única", "Convite Enviado", "Data de Criação"}

const exportDateLayout = "02/01/2006 15:04"

// InvitationLink returns the public invitation address for a slug.
func InvitationLink(baseURL, slug string) string {
    return baseURL + "/convite/" + slug
}

// WriteCSV writes guests as RFC 4180 CSV.  tableNames maps table ids to
// names; guests at unknown tables get an empty Mesa column.
func WriteCSV(w io.Writer, guests []model.Guest, tableNames map[string]string, baseURL string) error {
    cw := csv.NewWriter(w)
    if err := cw.Write(ExportHeader); err != nil {
        return err
    }
    for _, g := range guests {
        mesa := ""
        if g.TableID != nil {
            mesa = tableNames[*g.TableID]
        }
        sent := "Não"
        if g.InvitationSentAt != nil {
            sent = g.InvitationSentAt.Format(exportDateLayout)
        }
        row := []string{
            g.Name,
            model.StrVal(g.Phone),
            model.StrVal(g.Email),
            model.Presentation(g.Status).Label,
            mesa,
            InvitationLink(baseURL, g.UniqueURL),
            sent,
            g.CreatedAt.Format(exportDateLayout),
        }
        if err := cw.Write(row); err != nil {
            return err
        }
    }
    cw.Flush()
    return cw.Error()
}
