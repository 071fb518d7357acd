package enrollment

import (
	"regexp"
	"strings"
)

type action int

const (
	actionDenied action = iota
	actionPending
	actionRetrieve
	actionFailed
)

// verdict is what a rule decided about a certsrv HTML page.
type verdict struct {
	action    action
	requestID string
	reason    string
}

// rule fires when its trigger phrase occurs in the page. An empty trigger always fires.
type rule struct {
	name    string
	trigger string
	resolve func(body string) verdict
}

const (
	deniedMarker  = "denied by policy module"
	pendingMarker = "Your certificate request has been received"
)

var (
	pendingIDPattern     = regexp.MustCompile(`Your Request Id is (\d+)\.`)
	retrievalLinkPattern = regexp.MustCompile(`certnew\.cer\?ReqID=(\d+)&`)
	renewalIndexPattern  = regexp.MustCompile(`certnew\.cer\?ReqID=CACert&Renewal=(\d+)&`)
)

// submissionRules classify the certfnsh.asp response. Order matters: a denial page may
// also echo the request id, and a pending page never carries a retrieval link.
var submissionRules = []rule{
	{
		// "The request was denied by policy module."
		name:    "denied",
		trigger: deniedMarker,
		resolve: func(string) verdict {
			return verdict{action: actionDenied}
		},
	},
	{
		// "Your certificate request has been received. However, you must wait for an
		// administrator to issue the certificate you requested. Your Request Id is 12."
		name:    "pending",
		trigger: pendingMarker,
		resolve: func(body string) verdict {
			m := pendingIDPattern.FindStringSubmatch(body)
			if m == nil {
				return verdict{action: actionFailed, reason: "request is pending but no request id was found"}
			}
			return verdict{action: actionPending, requestID: m[1]}
		},
	},
	{
		// Issued pages link to certnew.cer?ReqID=<id>&Enc=b64.
		name: "retrieval link",
		resolve: func(body string) verdict {
			m := retrievalLinkPattern.FindStringSubmatch(body)
			if m == nil {
				return verdict{action: actionFailed, reason: "no request id found in the response"}
			}
			return verdict{action: actionRetrieve, requestID: m[1]}
		},
	},
}

// pollRules classify an HTML page served by certnew.cer in place of a certificate.
var pollRules = []rule{
	{
		name:    "denied",
		trigger: deniedMarker,
		resolve: func(string) verdict { return verdict{action: actionDenied} },
	},
	{
		// "The request was denied" / "has been denied" on the disposition page.
		name:    "denied disposition",
		trigger: "has been denied",
		resolve: func(string) verdict { return verdict{action: actionDenied} },
	},
	{
		name:    "pending",
		trigger: pendingMarker,
		resolve: func(string) verdict { return verdict{action: actionPending} },
	},
	{
		// "Certificate Pending" / "is still pending".
		name:    "still pending",
		trigger: "still pending",
		resolve: func(string) verdict { return verdict{action: actionPending} },
	},
	{
		name: "fallback",
		resolve: func(string) verdict {
			return verdict{action: actionFailed, reason: "certificate not available"}
		},
	},
}

func classify(rules []rule, body string) (verdict, string) {
	for _, r := range rules {
		if r.trigger == "" || strings.Contains(body, r.trigger) {
			return r.resolve(body), r.name
		}
	}
	return verdict{action: actionFailed, reason: "unrecognised response"}, ""
}
