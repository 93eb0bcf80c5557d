package llm

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	bedrockService          = "bedrock"
	bedrockAnthropicVersion = "bedrock-2023-05-31"
	sigV4Algorithm          = "AWS4-HMAC-SHA256"
)

// BedrockClient invokes Claude models on AWS Bedrock with SigV4-signed
// requests.
type BedrockClient struct {
	accessKeyID     string
	secretAccessKey string
	region          string
	model           string
	endpoint        string
	client          *http.Client
	now             func() time.Time
}

func NewBedrockClient(accessKeyID, secretAccessKey, region, model string) *BedrockClient {
	if region == "" {
		region = "us-east-1"
	}
	if model == "" {
		model = "anthropic.claude-haiku-4-5-20251001-v1:0"
	}
	return &BedrockClient{
		accessKeyID:     accessKeyID,
		secretAccessKey: secretAccessKey,
		region:          region,
		model:           model,
		endpoint:        fmt.Sprintf("https://bedrock-runtime.%s.amazonaws.com", region),
		client:          &http.Client{},
		now:             time.Now,
	}
}

type bedrockClaudeRequest struct {
	AnthropicVersion string    `json:"anthropic_version"`
	MaxTokens        int       `json:"max_tokens"`
	Messages         []Message `json:"messages"`
	System           string    `json:"system,omitempty"`
}

type bedrockClaudeResponse struct {
	Content []contentBlock `json:"content"`
}

func (c *BedrockClient) Complete(ctx context.Context, prompt string) (string, error) {
	return c.ChatComplete(ctx, userPrompt(prompt))
}

func (c *BedrockClient) ChatComplete(ctx context.Context, messages []Message) (string, error) {
	system, rest := splitSystem(messages)
	req := bedrockClaudeRequest{
		AnthropicVersion: bedrockAnthropicVersion,
		MaxTokens:        maxSummaryTokens,
		Messages:         rest,
		System:           system,
	}

	// Model IDs contain ':' which Bedrock expects percent-encoded.
	modelPath := strings.ReplaceAll(url.PathEscape(c.model), ":", "%3A")
	invokeURL := c.endpoint + "/model/" + modelPath + "/invoke"

	var resp bedrockClaudeResponse
	if err := postJSON(ctx, c.client, ProviderBedrock, invokeURL, req, &resp, c.sign); err != nil {
		return "", err
	}
	return joinText(resp.Content)
}

// sign adds AWS Signature Version 4 headers to req.
func (c *BedrockClient) sign(req *http.Request, payload []byte) error {
	now := c.now().UTC()
	datestamp := now.Format("20060102")
	amzdate := now.Format("20060102T150405Z")
	payloadHash := sha256Hash(payload)

	req.Header.Set("x-amz-date", amzdate)
	req.Header.Set("x-amz-content-sha256", payloadHash)

	signedHeaders := "content-type;host;x-amz-content-sha256;x-amz-date"
	canonicalHeaders := fmt.Sprintf("content-type:%s\nhost:%s\nx-amz-content-sha256:%s\nx-amz-date:%s\n",
		req.Header.Get("Content-Type"), req.URL.Host, payloadHash, amzdate)

	canonicalRequest := fmt.Sprintf("%s\n%s\n%s\n%s\n%s\n%s",
		req.Method, canonicalURI(req.URL), req.URL.RawQuery,
		canonicalHeaders, signedHeaders, payloadHash)

	credentialScope := fmt.Sprintf("%s/%s/%s/aws4_request", datestamp, c.region, bedrockService)
	stringToSign := fmt.Sprintf("%s\n%s\n%s\n%s",
		sigV4Algorithm, amzdate, credentialScope, sha256Hash([]byte(canonicalRequest)))

	signingKey := getSignatureKey(c.secretAccessKey, datestamp, c.region, bedrockService)
	signature := hex.EncodeToString(hmacSHA256(signingKey, []byte(stringToSign)))

	req.Header.Set("Authorization", fmt.Sprintf("%s Credential=%s/%s, SignedHeaders=%s, Signature=%s",
		sigV4Algorithm, c.accessKeyID, credentialScope, signedHeaders, signature))
	return nil
}

// canonicalURI encodes each segment of the already-escaped path a second
// time, as SigV4 requires for every service except S3.
func canonicalURI(u *url.URL) string {
	segments := strings.Split(u.EscapedPath(), "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	return strings.Join(segments, "/")
}

func sha256Hash(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}

func hmacSHA256(key, data []byte) []byte {
	h := hmac.New(sha256.New, key)
	h.Write(data)
	return h.Sum(nil)
}

func getSignatureKey(secretKey, datestamp, region, service string) []byte {
	kDate := hmacSHA256([]byte("AWS4"+secretKey), []byte(datestamp))
	kRegion := hmacSHA256(kDate, []byte(region))
	kService := hmacSHA256(kRegion, []byte(service))
	return hmacSHA256(kService, []byte("aws4_request"))
}
