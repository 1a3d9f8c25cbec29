package sqlinline

const QSelectProfileByID = `--sql c94a9d9d-f136-41cb-a826-b64ed69c70c1
select id, email, role, image_limit, images_generated, coalesce(allowed_system_key, false), created_at
from profiles
where id = $1::uuid
limit 1;
`

const QSelectAllProfiles = `--sql 0754707f-61f5-4bba-95a7-022516c111a7
select id, email, role, image_limit, images_generated, coalesce(allowed_system_key, false), created_at
from profiles
order by created_at desc;
`

// Conditional increment: the quota check and the write are one statement so
// two racing generations cannot both slip past the limit.
const QIncrementProfileUsage = `--sql 91cb11b2-d7ab-44e0-8bce-f46f61ed4fbe
update profiles
set images_generated = images_generated + 1
where id = $1::uuid
  and images_generated < image_limit
returning images_generated, image_limit;
`

const QUpdateProfileImageLimit = `--sql 64a27038-9147-47c9-bb4c-c5617800c1bd
update profiles
set image_limit = $2::int
where id = $1::uuid;
`

const QResetProfileUsageCounter = `--sql 6264ebb5-f648-4b7a-819a-cadb01466698
update profiles
set images_generated = 0
where id = $1::uuid;
`

const QUpdateProfileSystemKeyAccess = `--sql afea14f1-ab9d-44cf-87ef-e2aa7673e998
update profiles
set allowed_system_key = $2::boolean
where id = $1::uuid;
`
