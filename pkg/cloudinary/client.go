package cloudinary

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/admin"
	"github.com/google/uuid"

	"github.com/jarilabs/jariecom-backend/pkg/config"
	pkgerrors "github.com/jarilabs/jariecom-backend/pkg/errors"
	"github.com/jarilabs/jariecom-backend/pkg/logger"
)

var (
	errURLRequired    = errors.New("cloudinary url is required")
	errLoggerRequired = errors.New("cloudinary logger is required")
)

// Client wraps Cloudinary signed-upload parameter generation and
// folder cleanup. Uploads happen browser-side against the signature;
// the API never proxies image bytes.
type Client struct {
	cld        *cloudinary.Cloudinary
	folderRoot string
	logger     *logger.Logger
	now        func() time.Time
}

// UploadSignature carries everything the dashboard needs to perform a
// signed direct upload.
type UploadSignature struct {
	CloudName string `json:"cloud_name"`
	APIKey    string `json:"api_key"`
	Timestamp int64  `json:"timestamp"`
	Folder    string `json:"folder"`
	PublicID  string `json:"public_id"`
	Signature string `json:"signature"`
}

// NewClient initializes the Cloudinary wrapper from a CLOUDINARY_URL.
func NewClient(ctx context.Context, cfg config.CloudinaryConfig, logg *logger.Logger) (*Client, error) {
	if logg == nil {
		return nil, errLoggerRequired
	}
	if strings.TrimSpace(cfg.URL) == "" {
		return nil, errURLRequired
	}

	cld, err := cloudinary.NewFromURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("cloudinary init: %w", err)
	}

	root := strings.Trim(cfg.FolderRoot, "/")
	if root == "" {
		root = "jariecom"
	}

	logg.Info(ctx, "cloudinary client initialized")
	return &Client{
		cld:        cld,
		folderRoot: root,
		logger:     logg,
		now:        time.Now,
	}, nil
}

// Folder returns the per-store per-content-type folder path, e.g.
// jariecom/<store-id>/products.
func (c *Client) Folder(storeID uuid.UUID, contentType string) string {
	contentType = strings.Trim(strings.ToLower(strings.TrimSpace(contentType)), "/")
	if contentType == "" {
		contentType = "misc"
	}
	return fmt.Sprintf("%s/%s/%s", c.folderRoot, storeID, contentType)
}

// SignUpload produces the signed parameter set for a direct upload
// into the store's folder.
func (c *Client) SignUpload(storeID uuid.UUID, contentType string) (*UploadSignature, error) {
	folder := c.Folder(storeID, contentType)
	publicID := uuid.NewString()
	timestamp := c.now().Unix()

	params := url.Values{}
	params.Set("timestamp", strconv.FormatInt(timestamp, 10))
	params.Set("folder", folder)
	params.Set("public_id", publicID)

	signature, err := api.SignParameters(params, c.cld.Config.Cloud.APISecret)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sign upload parameters")
	}

	return &UploadSignature{
		CloudName: c.cld.Config.Cloud.CloudName,
		APIKey:    c.cld.Config.Cloud.APIKey,
		Timestamp: timestamp,
		Folder:    folder,
		PublicID:  publicID,
		Signature: signature,
	}, nil
}

// DeleteFolder removes every asset under the store's content-type
// folder and then the folder itself. Used when media is cleaned up.
func (c *Client) DeleteFolder(ctx context.Context, storeID uuid.UUID, contentType string) error {
	folder := c.Folder(storeID, contentType)

	if _, err := c.cld.Admin.DeleteAssetsByPrefix(ctx, admin.DeleteAssetsByPrefixParams{
		Prefix: api.CldAPIArray{folder},
	}); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete assets by prefix")
	}

	if _, err := c.cld.Admin.DeleteFolder(ctx, admin.DeleteFolderParams{Folder: folder}); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete folder")
	}

	fctx := c.logger.WithFields(ctx, map[string]any{"folder": folder})
	c.logger.Info(fctx, "cloudinary folder deleted")
	return nil
}
