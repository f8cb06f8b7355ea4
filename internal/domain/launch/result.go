package launch

import (
	"fmt"
	"net/url"
	"strings"
)

const explorerBaseURL = "https://explorer.solana.com"

// StoredObject is a file that has been written to content-addressed storage.
type StoredObject struct {
	CID string
	URL string
}

// Result is what a successful submission reports.
type Result struct {
	MintAddress string
	Signature   string
	MetadataURI string
	ImageURI    string
	ExplorerURL string
}

// ExplorerURL links to the mint on the Solana explorer.
// mainnet-beta needs no cluster parameter.
func ExplorerURL(mint, cluster string) string {
	u := fmt.Sprintf("%s/address/%s", explorerBaseURL, url.PathEscape(strings.TrimSpace(mint)))
	c := strings.TrimSpace(cluster)
	if c == "" || c == "mainnet-beta" || c == "mainnet" {
		return u
	}
	return u + "?cluster=" + url.QueryEscape(c)
}

// TxExplorerURL links to a transaction signature.
func TxExplorerURL(sig, cluster string) string {
	u := fmt.Sprintf("%s/tx/%s", explorerBaseURL, url.PathEscape(strings.TrimSpace(sig)))
	c := strings.TrimSpace(cluster)
	if c == "" || c == "mainnet-beta" || c == "mainnet" {
		return u
	}
	return u + "?cluster=" + url.QueryEscape(c)
}
