package controllers

import (
	"net/http"

	"github.com/inkforge/inkforge-backend/api/responses"
	"github.com/inkforge/inkforge-backend/internal/printfile"
	"github.com/inkforge/inkforge-backend/pkg/logger"
)

// PrintFileGenerate renders the production print file for one order item.
func PrintFileGenerate(svc printfile.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		itemID, err := parseUUIDParam(r, "itemId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		url, err := svc.GeneratePrintFile(r.Context(), itemID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"finalPrintFile": url})
	}
}
