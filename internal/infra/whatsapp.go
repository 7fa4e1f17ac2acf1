package infra

import (
	"net/url"
	"strings"
)

// WhatsAppLink builds a wa.me share link with a prefilled message. Delivery
// by WhatsApp is not an API call: the seller opens the link and hits send.
// telefono is expected in international format; a leading '+' and spaces are
// stripped.
func WhatsAppLink(telefono, mensaje string) string {
	num := strings.NewReplacer("+", "", " ", "", "-", "").Replace(telefono)
	return "https://wa.me/" + num + "?text=" + url.QueryEscape(mensaje)
}
