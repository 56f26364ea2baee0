// Package imagehost signs direct browser uploads to Cloudinary. The API secret
// never leaves the server; clients receive a signature bound to the folder and
// timestamp.
package imagehost

import (
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/cloudinary/cloudinary-go/v2/api"
)

type Signer struct {
	cloudName string
	apiKey    string
	apiSecret string
	now       func() time.Time
}

func NewSigner(cloudName, apiKey, apiSecret string) *Signer {
	return &Signer{cloudName: cloudName, apiKey: apiKey, apiSecret: apiSecret, now: time.Now}
}

type SignedUpload struct {
	CloudName string `json:"cloud_name"`
	APIKey    string `json:"api_key"`
	Timestamp int64  `json:"timestamp"`
	Folder    string `json:"folder"`
	Signature string `json:"signature"`
	UploadURL string `json:"upload_url"`
}

// SignUpload signs an upload into folder, valid for the provider's signature window.
func (s *Signer) SignUpload(folder string) (SignedUpload, error) {
	ts := s.now().Unix()
	params := url.Values{}
	params.Set("folder", folder)
	params.Set("timestamp", strconv.FormatInt(ts, 10))

	sig, err := api.SignParameters(params, s.apiSecret)
	if err != nil {
		return SignedUpload{}, fmt.Errorf("sign upload: %w", err)
	}
	return SignedUpload{
		CloudName: s.cloudName,
		APIKey:    s.apiKey,
		Timestamp: ts,
		Folder:    folder,
		Signature: sig,
		UploadURL: fmt.Sprintf("https://api.cloudinary.com/v1_1/%s/image/upload", s.cloudName),
	}, nil
}
