package result

import (
	"github.com/gofiber/fiber/v2"
)

func OK(c *fiber.Ctx, v interface{}) error {
	return c.Status(200).JSON(fiber.Map{"status": 200, "data": v})
}

// Page 分页结果
func Page(c *fiber.Ctx, content interface{}, total int64) error {
	return OK(c, fiber.Map{"total": total, "content": content})
}

func Once(c *fiber.Ctx, v interface{}, err error) error {
	if err != nil {
		return err
	}
	return OK(c, v)
}
