package agent

import (
	"fmt"
	"strings"

	"github.com/feral-file/nft-registry/internal/domain"
)

// Explorer renders block explorer links
type Explorer struct {
	baseURL string
}

// NewExplorer creates an explorer for baseURL
func NewExplorer(baseURL string) Explorer {
	return Explorer{baseURL: strings.TrimRight(baseURL, "/")}
}

// TokenURL returns the page of a token
func (e Explorer) TokenURL(id domain.TokenID) string {
	return fmt.Sprintf("%s/token/%s", e.baseURL, id)
}

// WalletNFTsURL returns the page listing the tokens of an address
func (e Explorer) WalletNFTsURL(addr domain.Address) string {
	return fmt.Sprintf("%s/address/%s/nfts", e.baseURL, addr)
}
