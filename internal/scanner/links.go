package scanner

import (
	"regexp"
	"strings"
)

// Books that geo-fence their deep links put a state code in the hostname.
// The feed hands back whatever state the upstream account was registered in,
// so the link has to be rewritten for the subscriber's state before it is
// useful.
var (
	fanduelStateRe   = regexp.MustCompile(`https://[a-z]{2}\.sportsbook\.fanduel\.com`)
	betriversStateRe = regexp.MustCompile(`https://[a-z]{2}\.betrivers\.com`)
	betmgmStateRe    = regexp.MustCompile(`https://sports\.[a-z]{2}\.betmgm\.com`)
	ballybetStateRe  = regexp.MustCompile(`https://[a-z]{2}\.ballybet\.com`)
)

// RewriteLink normalizes a sportsbook deep link for the given US state code.
// Links for books without state-specific hosts pass through unchanged.
func RewriteLink(link, state string) string {
	if link == "" {
		return ""
	}

	// Placeholder style links.
	link = strings.ReplaceAll(link, "{state}", state)
	link = strings.ReplaceAll(link, "{STATE}", strings.ToUpper(state))

	// Canadian FanDuel hosts map onto the US domain.
	link = strings.ReplaceAll(link, "sportsbook.fanduel.ca", "sportsbook.fanduel.com")

	switch {
	case strings.Contains(link, "sportsbook.fanduel.com"):
		if fanduelStateRe.MatchString(link) {
			link = fanduelStateRe.ReplaceAllString(link, "https://"+state+".sportsbook.fanduel.com")
		} else {
			link = strings.Replace(link, "https://sportsbook.fanduel.com", "https://"+state+".sportsbook.fanduel.com", 1)
		}
	case strings.Contains(link, "betrivers.com"):
		link = betriversStateRe.ReplaceAllString(link, "https://"+state+".betrivers.com")
	case strings.Contains(link, "betmgm.com"):
		if betmgmStateRe.MatchString(link) {
			link = betmgmStateRe.ReplaceAllString(link, "https://sports."+state+".betmgm.com")
		} else {
			link = strings.Replace(link, "https://sports.betmgm.com", "https://sports."+state+".betmgm.com", 1)
		}
	case strings.Contains(link, "ballybet.com"):
		if ballybetStateRe.MatchString(link) {
			link = ballybetStateRe.ReplaceAllString(link, "https://"+state+".ballybet.com")
		} else {
			link = strings.Replace(link, "https://www.ballybet.com", "https://"+state+".ballybet.com", 1)
		}
	}
	return link
}
