// Package credentials holds the Wi-Fi join parameters. The defaults are
// placeholders; real values are injected at build time:
//
//	tinygo flash -ldflags="-X 'radiobridge-go/internal/credentials.ssid=MyNet' -X 'radiobridge-go/internal/credentials.password=secret'" .
package credentials

var (
	ssid     = "radiobridge"
	password = ""
)

func SSID() string { return ssid }

func Password() string { return password }
