package routes_test

import (
	"testing"

	"gitlearn/backend/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTutorial(t *testing.T, env *testEnv, token string, body map[string]interface{}) models.Tutorial {
	t.Helper()
	var tutorial models.Tutorial
	status := env.do(t, fiber.MethodPost, "/api/tutorials", token, body, &tutorial)
	require.Equal(t, fiber.StatusCreated, status)
	return tutorial
}

func TestCreateTutorial(t *testing.T) {
	env := setup(t)
	lecturer, token := env.seed(t, "lecturer", models.RoleLecturer)

	tutorial := createTutorial(t, env, token, map[string]interface{}{
		"title":       "Rebasing",
		"content":     "git rebase main",
		"description": "Rewrite history",
		"tags":        []string{"rebase"},
		"exercises": []map[string]interface{}{
			{"title": "Rebase a branch", "description": "Rebase feature onto main"},
		},
	})

	assert.Equal(t, lecturer.ID, tutorial.AuthorID)
	assert.Equal(t, 1, tutorial.Version)
	assert.Equal(t, models.DifficultyBeginner, tutorial.Difficulty)
	assert.False(t, tutorial.Published)
	require.Len(t, tutorial.Exercises, 1)
	assert.Equal(t, 10, tutorial.Exercises[0].Points)
	assert.Equal(t, models.DifficultyBeginner, tutorial.Exercises[0].Difficulty)
	assert.Equal(t, []uint{}, []uint(tutorial.Prerequisites))
}

func TestCreateTutorialRejects(t *testing.T) {
	env := setup(t)
	_, studentToken := env.seed(t, "student", models.RoleStudent)
	_, lecturerToken := env.seed(t, "lecturer", models.RoleLecturer)

	body := map[string]interface{}{"title": "Stash", "content": "git stash", "description": "Shelve changes"}

	status := env.do(t, fiber.MethodPost, "/api/tutorials", studentToken, body, nil)
	assert.Equal(t, fiber.StatusForbidden, status)

	status = env.do(t, fiber.MethodPost, "/api/tutorials", lecturerToken, map[string]interface{}{"title": "No content"}, nil)
	assert.Equal(t, fiber.StatusBadRequest, status)

	status = env.do(t, fiber.MethodPost, "/api/tutorials", lecturerToken, map[string]interface{}{
		"title": "Bad", "content": "x", "description": "y", "difficulty": "expert",
	}, nil)
	assert.Equal(t, fiber.StatusBadRequest, status)

	createTutorial(t, env, lecturerToken, body)
	var result map[string]interface{}
	status = env.do(t, fiber.MethodPost, "/api/tutorials", lecturerToken, body, &result)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "Tutorial title already exists", result["message"])
}

func TestPublishedTutorials(t *testing.T) {
	env := setup(t)
	_, token := env.seed(t, "lecturer", models.RoleLecturer)

	basics := createTutorial(t, env, token, map[string]interface{}{
		"title": "Basics", "content": "git init", "description": "Start here", "published": true,
	})
	createTutorial(t, env, token, map[string]interface{}{
		"title": "Draft", "content": "wip", "description": "Not yet",
	})
	branching := createTutorial(t, env, token, map[string]interface{}{
		"title": "Branching", "content": "git branch", "description": "Branches",
		"published": true, "prerequisites": []uint{basics.ID},
	})

	var list []map[string]interface{}
	status := env.do(t, fiber.MethodGet, "/api/tutorials/published", "", nil, &list)
	require.Equal(t, fiber.StatusOK, status)
	require.Len(t, list, 2)
	for _, item := range list {
		assert.NotContains(t, item, "content")
		author := item["author"].(map[string]interface{})
		assert.Equal(t, "lecturer", author["username"])
	}

	var detail struct {
		Tutorial      models.Tutorial          `json:"tutorial"`
		Prerequisites []map[string]interface{} `json:"prerequisites"`
	}
	status = env.do(t, fiber.MethodGet, "/api/tutorials/published/"+itoa(branching.ID), "", nil, &detail)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "git branch", detail.Tutorial.Content)
	require.Len(t, detail.Prerequisites, 1)
	assert.Equal(t, "Basics", detail.Prerequisites[0]["title"])

	var draft models.Tutorial
	require.NoError(t, env.db.Where("title = ?", "Draft").First(&draft).Error)
	status = env.do(t, fiber.MethodGet, "/api/tutorials/published/"+itoa(draft.ID), "", nil, nil)
	assert.Equal(t, fiber.StatusNotFound, status)

	status = env.do(t, fiber.MethodGet, "/api/tutorials/published/9999", "", nil, nil)
	assert.Equal(t, fiber.StatusNotFound, status)
}

func TestUpdateTutorial(t *testing.T) {
	env := setup(t)
	_, authorToken := env.seed(t, "author", models.RoleLecturer)
	_, otherToken := env.seed(t, "other", models.RoleLecturer)
	_, adminToken := env.seed(t, "boss", models.RoleAdmin)

	tutorial := createTutorial(t, env, authorToken, map[string]interface{}{
		"title": "Merging", "content": "git merge", "description": "Merge branches",
	})
	path := "/api/tutorials/" + itoa(tutorial.ID)

	status := env.do(t, fiber.MethodPatch, path, otherToken, map[string]interface{}{"published": true}, nil)
	assert.Equal(t, fiber.StatusForbidden, status)

	var updated models.Tutorial
	status = env.do(t, fiber.MethodPatch, path, authorToken, map[string]interface{}{"published": true}, &updated)
	require.Equal(t, fiber.StatusOK, status)
	assert.True(t, updated.Published)
	assert.Equal(t, 1, updated.Version)

	status = env.do(t, fiber.MethodPatch, path, adminToken, map[string]interface{}{"content": "git merge --no-ff"}, &updated)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, 2, updated.Version)
	assert.Equal(t, "git merge --no-ff", updated.Content)
	assert.True(t, updated.Published)

	status = env.do(t, fiber.MethodPatch, "/api/tutorials/9999", adminToken, map[string]interface{}{"published": false}, nil)
	assert.Equal(t, fiber.StatusNotFound, status)
}

func TestDeleteTutorial(t *testing.T) {
	env := setup(t)
	_, authorToken := env.seed(t, "author", models.RoleLecturer)
	_, studentToken := env.seed(t, "student", models.RoleStudent)

	tutorial := createTutorial(t, env, authorToken, map[string]interface{}{
		"title": "Tags", "content": "git tag", "description": "Label releases",
	})
	path := "/api/tutorials/" + itoa(tutorial.ID)

	status := env.do(t, fiber.MethodDelete, path, studentToken, nil, nil)
	assert.Equal(t, fiber.StatusForbidden, status)

	status = env.do(t, fiber.MethodDelete, path, authorToken, nil, nil)
	require.Equal(t, fiber.StatusOK, status)

	var count int64
	env.db.Model(&models.Tutorial{}).Count(&count)
	assert.Zero(t, count)
}

func TestTutorialsByAuthor(t *testing.T) {
	env := setup(t)
	author, authorToken := env.seed(t, "author", models.RoleLecturer)
	_, studentToken := env.seed(t, "student", models.RoleStudent)

	createTutorial(t, env, authorToken, map[string]interface{}{"title": "One", "content": "1", "description": "first"})
	createTutorial(t, env, authorToken, map[string]interface{}{"title": "Two", "content": "2", "description": "second", "published": true})

	path := "/api/tutorials/author/" + itoa(author.ID)
	status := env.do(t, fiber.MethodGet, path, studentToken, nil, nil)
	assert.Equal(t, fiber.StatusForbidden, status)

	var list []models.Tutorial
	status = env.do(t, fiber.MethodGet, path, authorToken, nil, &list)
	require.Equal(t, fiber.StatusOK, status)
	assert.Len(t, list, 2)
}
