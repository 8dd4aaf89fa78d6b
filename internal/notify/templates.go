package notify

import "text/template"

// Nombres de plantilla; también se usan como label de métricas.
const (
	TplRegistrationReceived = "registration_received"
	TplCertificateIssued    = "certificate_issued"
	TplUpdateApproved       = "update_approved"
	TplUpdateRejected       = "update_rejected"
	TplTicketReply          = "ticket_reply"
	TplTicketOpened         = "ticket_opened"
)

var sources = map[string][2]string{
	TplRegistrationReceived: {
		`We received {{.DogName}}'s registration ({{.WCU}})`,
		`Hi {{.OwnerName}},

Thanks for registering {{.DogName}} with the {{.Registry}}.
Registration number: {{.WCU}}

Your registration becomes public and the certificate is issued as soon as
the payment is confirmed.

{{.Registry}}
`,
	},
	TplCertificateIssued: {
		`{{.DogName}} is officially registered ({{.WCU}})`,
		`Hi {{.OwnerName}},

Payment received. {{.DogName}} is now part of the {{.Registry}}.
Registration number: {{.WCU}}
{{if .CertificateURL}}
Download the certificate:
{{.CertificateURL}}
{{end}}{{if .ProfileURL}}
Public profile:
{{.ProfileURL}}
{{end}}
{{.Registry}}
`,
	},
	TplUpdateApproved: {
		`Your update for {{.DogName}} was approved`,
		`Hi,

The changes you requested for {{.DogName}} ({{.WCU}}) were reviewed and applied.
{{if .Notes}}
Notes from the registry:
{{.Notes}}
{{end}}{{if .ProfileURL}}
{{.ProfileURL}}
{{end}}
{{.Registry}}
`,
	},
	TplUpdateRejected: {
		`Your update for {{.DogName}} was not approved`,
		`Hi,

The changes you requested for {{.DogName}} ({{.WCU}}) could not be applied.
{{if .Notes}}
Reason:
{{.Notes}}
{{end}}
Reply to this email if you have questions.

{{.Registry}}
`,
	},
	TplTicketReply: {
		`{{.Subject}}`,
		`{{.Body}}

--
{{.Registry}} support
Please keep {{.Reference}} in the subject when replying.
`,
	},
	TplTicketOpened: {
		`New support ticket {{.Reference}}: {{.Subject}}`,
		`From: {{.FromName}} <{{.FromEmail}}>
Ticket: {{.Reference}}

{{.Body}}
`,
	},
}

var templates = parseTemplates()

func parseTemplates() *template.Template {
	root := template.New("notify")
	for name, src := range sources {
		template.Must(root.New(name + ".subject").Parse(src[0]))
		template.Must(root.New(name + ".body").Parse(src[1]))
	}
	return root
}
