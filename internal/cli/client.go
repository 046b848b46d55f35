package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"
)

// --- Response types (дублируются из api/dto.go, CLI не импортирует internal/api) ---

// PackageResponse — package из API.
type PackageResponse struct {
	ID           string           `json:"id"`
	UserNotes    string           `json:"user_notes,omitempty"`
	Metadata     MetadataResponse `json:"metadata"`
	Status       string           `json:"status"`
	Stage        string           `json:"stage,omitempty"`
	ErrorMessage string           `json:"error_message,omitempty"`
	CreatedAt    string           `json:"created_at"`
	UpdatedAt    string           `json:"updated_at"`
}

// MetadataResponse — метаданные инсталлятора из API.
type MetadataResponse struct {
	Name          string `json:"name,omitempty"`
	Version       string `json:"version,omitempty"`
	Vendor        string `json:"vendor,omitempty"`
	Architecture  string `json:"architecture,omitempty"`
	Kind          string `json:"kind,omitempty"`
	SilentArgs    string `json:"silent_args,omitempty"`
	UninstallArgs string `json:"uninstall_args,omitempty"`
	Language      string `json:"language,omitempty"`
}

// StatusResponse — статус обработки из API.
type StatusResponse struct {
	ID           string `json:"id"`
	Status       string `json:"status"`
	Stage        string `json:"stage,omitempty"`
	ErrorMessage string `json:"error_message,omitempty"`
}

// ScriptResponse — итоговый скрипт из API.
type ScriptResponse struct {
	ID             string         `json:"id"`
	ScriptText     string         `json:"script_text"`
	RenderWarnings []string       `json:"render_warnings,omitempty"`
	LintResult     map[string]any `json:"lint_result"`
}

// ListPackagesOpts — параметры фильтрации packages.
type ListPackagesOpts struct {
	Status string
	Limit  int
}

// --- API response wrappers ---

type dataResponse struct {
	Data json.RawMessage `json:"data"`
}

type listResponse struct {
	Data  json.RawMessage `json:"data"`
	Total int             `json:"total"`
}

type errorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// --- Client ---

// Client — HTTP-клиент для Packsmith API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient создаёт клиент для API.
// Таймаут большой: загрузка артефакта может занимать минуты.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 5 * time.Minute,
		},
	}
}

// --- Packages ---

// SubmitPackage загружает артефакт инсталлятора и создаёт package.
func (c *Client) SubmitPackage(artifactPath, notes string) (*PackageResponse, error) {
	f, err := os.Open(artifactPath)
	if err != nil {
		return nil, fmt.Errorf("open artifact: %w", err)
	}
	defer f.Close()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	part, err := mw.CreateFormFile("artifact", filepath.Base(artifactPath))
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, fmt.Errorf("read artifact: %w", err)
	}
	if notes != "" {
		if err := mw.WriteField("notes", notes); err != nil {
			return nil, fmt.Errorf("write notes field: %w", err)
		}
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("close multipart writer: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, c.baseURL+"/api/v1/packages", &buf)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := c.checkError(resp); err != nil {
		return nil, err
	}

	var dr dataResponse
	if err := json.NewDecoder(resp.Body).Decode(&dr); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	var pkg PackageResponse
	if err := json.Unmarshal(dr.Data, &pkg); err != nil {
		return nil, err
	}
	return &pkg, nil
}

// ListPackages возвращает список packages с фильтрацией.
func (c *Client) ListPackages(opts ListPackagesOpts) ([]PackageResponse, error) {
	params := url.Values{}
	if opts.Status != "" {
		params.Set("status", opts.Status)
	}
	if opts.Limit > 0 {
		params.Set("limit", fmt.Sprintf("%d", opts.Limit))
	}

	var pkgs []PackageResponse
	err := c.list("/api/v1/packages", params, &pkgs)
	return pkgs, err
}

// GetPackage возвращает package по ID.
func (c *Client) GetPackage(id string) (*PackageResponse, error) {
	var pkg PackageResponse
	err := c.get("/api/v1/packages/"+id, &pkg)
	return &pkg, err
}

// GetStatus возвращает статус обработки package.
func (c *Client) GetStatus(id string) (*StatusResponse, error) {
	var status StatusResponse
	err := c.get("/api/v1/packages/"+id+"/status", &status)
	return &status, err
}

// GetScript возвращает итоговый скрипт package.
func (c *Client) GetScript(id string) (*ScriptResponse, error) {
	var script ScriptResponse
	err := c.get("/api/v1/packages/"+id+"/script", &script)
	return &script, err
}

// --- HTTP helpers ---

func (c *Client) get(path string, result any) error {
	resp, err := c.do(http.MethodGet, path)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := c.checkError(resp); err != nil {
		return err
	}

	var dr dataResponse
	if err := json.NewDecoder(resp.Body).Decode(&dr); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return json.Unmarshal(dr.Data, result)
}

func (c *Client) list(path string, params url.Values, result any) error {
	if len(params) > 0 {
		path = path + "?" + params.Encode()
	}

	resp, err := c.do(http.MethodGet, path)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := c.checkError(resp); err != nil {
		return err
	}

	var lr listResponse
	if err := json.NewDecoder(resp.Body).Decode(&lr); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return json.Unmarshal(lr.Data, result)
}

func (c *Client) do(method, path string) (*http.Response, error) {
	req, err := http.NewRequest(method, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	return c.httpClient.Do(req)
}

func (c *Client) checkError(resp *http.Response) error {
	if resp.StatusCode < 400 {
		return nil
	}

	var er errorResponse
	if err := json.NewDecoder(resp.Body).Decode(&er); err != nil {
		return fmt.Errorf("API error: HTTP %d", resp.StatusCode)
	}

	return fmt.Errorf("%s: %s", er.Error.Code, er.Error.Message)
}
