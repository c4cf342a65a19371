// Copyright 2026 Canonical.

package condb

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/juju/zaputil/zapctx"
	"go.uber.org/zap"

	"github.com/condb/condb/internal/dbmodel"
	"github.com/condb/condb/internal/errors"
)

// TagCommit labels a commit with a tag. Version tags must carry a
// semantic version name, optionally prefixed with "v", and have the
// parsed parts recorded in their metadata.
func (c *ConDB) TagCommit(ctx context.Context, u Identity, databaseID, hash, tagType, name, description string) (*dbmodel.CommitTag, error) {
	const op = errors.Op("condb.TagCommit")

	if name == "" {
		return nil, errors.E(op, errors.CodeBadRequest, "tag name not specified")
	}
	tt, ok := dbmodel.ParseTagType(tagType)
	if !ok {
		return nil, errors.E(op, errors.CodeBadRequest, fmt.Sprintf("invalid tag type %q", tagType))
	}
	commit := dbmodel.Commit{Hash: hash, DatabaseID: databaseID}
	if err := c.Store.GetCommit(ctx, &commit); err != nil {
		return nil, errors.E(op, err)
	}

	tag := dbmodel.CommitTag{
		CreatedAt:      c.now(),
		CommitHash:     hash,
		TagType:        tt,
		TagName:        name,
		TagDescription: description,
		CreatedBy:      u.ID,
	}
	if tt == dbmodel.TagTypeVersion {
		major, minor, patch, err := parseSemver(name)
		if err != nil {
			return nil, errors.E(op, errors.CodeBadRequest, err.Error())
		}
		tag.Metadata = dbmodel.Map{
			"major": major,
			"minor": minor,
			"patch": patch,
		}
	}
	if err := c.Store.AddCommitTag(ctx, &tag); err != nil {
		return nil, errors.E(op, err)
	}
	zapctx.Info(ctx, "commit tagged",
		zap.String("database", databaseID),
		zap.String("commit", hash),
		zap.String("tag", name),
		zap.String("type", string(tt)),
		zap.String("user", u.ID))
	return &tag, nil
}

// ListCommitTags returns the tags of a database matching the query,
// newest first.
func (c *ConDB) ListCommitTags(ctx context.Context, databaseID string, query dbmodel.CommitTagQuery) ([]dbmodel.CommitTag, error) {
	const op = errors.Op("condb.ListCommitTags")

	database := dbmodel.Database{ID: databaseID}
	if err := c.Store.GetDatabase(ctx, &database); err != nil {
		return nil, errors.E(op, err)
	}
	var tags []dbmodel.CommitTag
	err := c.Store.ForEachCommitTag(ctx, databaseID, query, func(tag *dbmodel.CommitTag) error {
		tags = append(tags, *tag)
		return nil
	})
	if err != nil {
		return nil, errors.E(op, err)
	}
	return tags, nil
}

// DeleteCommitTag removes the named tag from a commit.
func (c *ConDB) DeleteCommitTag(ctx context.Context, u Identity, databaseID, hash, name string) error {
	const op = errors.Op("condb.DeleteCommitTag")

	commit := dbmodel.Commit{Hash: hash, DatabaseID: databaseID}
	if err := c.Store.GetCommit(ctx, &commit); err != nil {
		return errors.E(op, err)
	}
	tag := dbmodel.CommitTag{CommitHash: hash, TagName: name}
	if err := c.Store.GetCommitTag(ctx, &tag); err != nil {
		return errors.E(op, err)
	}
	if err := c.Store.DeleteCommitTag(ctx, &tag); err != nil {
		return errors.E(op, err)
	}
	zapctx.Info(ctx, "commit tag deleted",
		zap.String("database", databaseID),
		zap.String("commit", hash),
		zap.String("tag", name),
		zap.String("user", u.ID))
	return nil
}

// parseSemver parses a "major.minor.patch" version, optionally prefixed
// with "v".
func parseSemver(name string) (major, minor, patch int, err error) {
	s := strings.TrimPrefix(name, "v")
	parts := strings.Split(s, ".")
	if len(parts) != 3 {
		return 0, 0, 0, fmt.Errorf("version tag %q is not a semantic version", name)
	}
	nums := make([]int, 3)
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return 0, 0, 0, fmt.Errorf("version tag %q is not a semantic version", name)
		}
		nums[i] = n
	}
	return nums[0], nums[1], nums[2], nil
}
