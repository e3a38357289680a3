package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"

	"jazakallah/internal/domain"
)

// respondError maps the domain error taxonomy onto HTTP statuses. Storage
// and external-service failures carry a diagnostic string so callers can
// tell "query failed" apart from "no results".
func respondError(c *gin.Context, err error) {
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"errors": ve.Fields})
		return
	}
	var nf *domain.NotFoundError
	if errors.As(err, &nf) {
		c.JSON(http.StatusNotFound, gin.H{"error": nf.Error()})
		return
	}
	var conflict *domain.ConflictError
	if errors.As(err, &conflict) {
		c.JSON(http.StatusConflict, gin.H{"error": conflict.Error()})
		return
	}
	var ext *domain.ExternalServiceError
	if errors.As(err, &ext) {
		log.Error().Err(ext.Err).Str("service", ext.Service).Msg("external service failure")
		c.JSON(http.StatusBadGateway, gin.H{
			"error":  "external service failure",
			"detail": ext.Error(),
		})
		return
	}
	log.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
	c.JSON(http.StatusInternalServerError, gin.H{
		"error":  "internal error",
		"detail": err.Error(),
	})
}

// bindingErrors flattens gin's validator errors into a per-field mapping
// keyed by the wire field name.
func bindingErrors(err error) map[string]string {
	fields := map[string]string{}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			switch fe.Tag() {
			case "required":
				fields[snakeCase(fe.Field())] = "this field is required"
			default:
				fields[snakeCase(fe.Field())] = "invalid value"
			}
		}
		return fields
	}
	fields["body"] = err.Error()
	return fields
}

func snakeCase(s string) string {
	var b []byte
	for i := 0; i < len(s); i++ {
		ch := s[i]
		if ch >= 'A' && ch <= 'Z' {
			// keep runs of capitals (ID) as one segment
			if i > 0 && !(s[i-1] >= 'A' && s[i-1] <= 'Z') {
				b = append(b, '_')
			}
			ch += 'a' - 'A'
		}
		b = append(b, ch)
	}
	return string(b)
}

func respondBindingError(c *gin.Context, err error) {
	c.JSON(http.StatusUnprocessableEntity, gin.H{"errors": bindingErrors(err)})
}
