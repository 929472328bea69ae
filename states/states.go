package states

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// State is the response model consumed by the registration form selects
// { uf, name }

type State struct {
	UF   string `json:"uf"`
	Name string `json:"name"`
}

// RegisterRoutes registers GET /states with the 27 Brazilian federative units.
func RegisterRoutes(r *gin.Engine) {
	r.GET("/states", func(c *gin.Context) {
		data := []State{
			{UF: "AC", Name: "Acre"},
			{UF: "AL", Name: "Alagoas"},
			{UF: "AP", Name: "Amapá"},
			{UF: "AM", Name: "Amazonas"},
			{UF: "BA", Name: "Bahia"},
			{UF: "CE", Name: "Ceará"},
			{UF: "DF", Name: "Distrito Federal"},
			{UF: "ES", Name: "Espírito Santo"},
			{UF: "GO", Name: "Goiás"},
			{UF: "MA", Name: "Maranhão"},
			{UF: "MT", Name: "Mato Grosso"},
			{UF: "MS", Name: "Mato Grosso do Sul"},
			{UF: "MG", Name: "Minas Gerais"},
			{UF: "PA", Name: "Pará"},
			{UF: "PB", Name: "Paraíba"},
			{UF: "PR", Name: "Paraná"},
			{UF: "PE", Name: "Pernambuco"},
			{UF: "PI", Name: "Piauí"},
			{UF: "RJ", Name: "Rio de Janeiro"},
			{UF: "RN", Name: "Rio Grande do Norte"},
			{UF: "RS", Name: "Rio Grande do Sul"},
			{UF: "RO", Name: "Rondônia"},
			{UF: "RR", Name: "Roraima"},
			{UF: "SC", Name: "Santa Catarina"},
			{UF: "SP", Name: "São Paulo"},
			{UF: "SE", Name: "Sergipe"},
			{UF: "TO", Name: "Tocantins"},
		}
		c.JSON(http.StatusOK, data)
	})
}
