package inventory

import (
	"errors"
	"fmt"
	"strings"
)

// ErrLoadFailed wraps any failure to fetch the source table.
var ErrLoadFailed = errors.New("inventory load failed")

// Messages shown on the page.
const (
	MessageLoadFailed = "Não foi possível carregar os dados. Verifique suas credenciais, o nome da planilha ou a conexão."
	MessageNoResults  = "Nenhum resultado encontrado para os filtros aplicados."
)

// MissingColumnsError reports presentation columns absent from the source
// header row. It stops the render.
type MissingColumnsError struct {
	Missing  []string
	Expected []string
}

func (e *MissingColumnsError) Error() string {
	return fmt.Sprintf("missing columns %s (expected %s)", quoteAll(e.Missing), quoteAll(e.Expected))
}

// Message is the text shown to the user.
func (e *MissingColumnsError) Message() string {
	return fmt.Sprintf("Erro: A coluna %s não foi encontrada na sua planilha. Por favor, verifique os nomes exatos das colunas: %s",
		strings.Join(quoteEach(e.Missing), ", "), quoteAll(e.Expected))
}

func quoteEach(values []string) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = "'" + v + "'"
	}
	return out
}

func quoteAll(values []string) string {
	return "[" + strings.Join(quoteEach(values), ", ") + "]"
}
